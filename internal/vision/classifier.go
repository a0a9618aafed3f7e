package vision

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var ErrRuntimeUnavailable = errors.New("onnx runtime unavailable")

// Classifier labels images with a local MobileNetV2 ONNX model. The runtime,
// labels and session are loaded on first use.
type Classifier struct {
	mu sync.Mutex

	modelPath  string
	labelsPath string
	libPath    string
	topK       int

	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	labels  []string
	initErr error
	inited  bool
}

func NewClassifier(modelPath, labelsPath, onnxLibPath string, topK int) *Classifier {
	if topK <= 0 {
		topK = 3
	}
	return &Classifier{
		modelPath:  modelPath,
		labelsPath: labelsPath,
		libPath:    onnxLibPath,
		topK:       topK,
	}
}

// init must be called with c.mu held. A failed load is remembered so a
// missing shared library is not retried on every upload.
func (c *Classifier) init() error {
	if c.inited {
		return c.initErr
	}
	c.inited = true
	c.initErr = c.load()
	return c.initErr
}

func (c *Classifier) load() error {
	if c.libPath != "" {
		ort.SetSharedLibraryPath(c.libPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
		}
	}

	labels, err := loadLabels(c.labelsPath)
	if err != nil {
		return fmt.Errorf("load labels failed: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(c.modelPath)
	if err != nil {
		return fmt.Errorf("read model io info failed: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("model %s has no inputs or outputs", c.modelPath)
	}

	input, err := ort.NewEmptyTensor[float32](inputs[0].Dimensions)
	if err != nil {
		return fmt.Errorf("create input tensor failed: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](outputs[0].Dimensions)
	if err != nil {
		_ = input.Destroy()
		return fmt.Errorf("create output tensor failed: %w", err)
	}

	session, err := ort.NewAdvancedSession(c.modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		_ = output.Destroy()
		_ = input.Destroy()
		return fmt.Errorf("create onnx session failed: %w", err)
	}

	c.labels = labels
	c.input = input
	c.output = output
	c.session = session
	return nil
}

// Classify runs one image through the model and returns the top-k labels
// with softmax probabilities.
func (c *Classifier) Classify(data []byte) ([]LabelScore, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("decode image failed: %w", err)
	}
	tensor := preprocess(img)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.init(); err != nil {
		return nil, err
	}

	in := c.input.GetData()
	if len(in) < len(tensor) {
		return nil, fmt.Errorf("input tensor size %d < preprocessed %d", len(in), len(tensor))
	}
	copy(in, tensor)
	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run failed: %w", err)
	}

	return topLabels(c.output.GetData(), c.labels, c.topK), nil
}

// Describe reads the image at path and renders its labels on one line, for
// example "tabby (0.82), tiger cat (0.11)".
func (c *Classifier) Describe(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image failed: %w", err)
	}
	labels, err := c.Classify(data)
	if err != nil {
		return "", err
	}
	return formatLabels(labels), nil
}

func (c *Classifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		_ = c.session.Destroy()
		c.session = nil
	}
	if c.input != nil {
		_ = c.input.Destroy()
		c.input = nil
	}
	if c.output != nil {
		_ = c.output.Destroy()
		c.output = nil
	}
}

func formatLabels(labels []LabelScore) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		if l.Label == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%.2f)", l.Label, l.Score))
	}
	return strings.Join(parts, ", ")
}
