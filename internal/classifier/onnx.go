package classifier

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// ONNXConfig describes a letter model exported to ONNX. The model takes a
// [1, FeatureSize] float32 input and produces [1, len(Labels)] scores.
type ONNXConfig struct {
	ModelPath  string
	Labels     []string
	InputName  string
	OutputName string
	// Softmax is set when the model emits logits rather than probabilities.
	Softmax bool
}

// ONNXClassifier runs a letter model through ONNX Runtime.
type ONNXClassifier struct {
	mu      sync.Mutex
	labels  []string
	softmax bool

	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewONNXClassifier initializes ONNX Runtime once per process, loads the
// model and allocates the tensors reused by every Classify call.
func NewONNXClassifier(cfg ONNXConfig) (*ONNXClassifier, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("onnx: model path is empty")
	}
	if len(cfg.Labels) == 0 {
		return nil, errors.New("onnx: no labels configured")
	}
	if cfg.InputName == "" {
		cfg.InputName = "input"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "output"
	}

	ortInitOnce.Do(func() {
		libPath, err := resolveORTLibPath()
		if err != nil {
			ortInitErr = fmt.Errorf("resolve ORT lib: %w", err)
			return
		}
		ort.SetSharedLibraryPath(libPath)
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("onnx: %w", ortInitErr)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, FeatureSize))
	if err != nil {
		return nil, fmt.Errorf("onnx: create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(cfg.Labels))))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("onnx: create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("onnx: create session for %s: %w", cfg.ModelPath, err)
	}

	return &ONNXClassifier{
		labels:  append([]string(nil), cfg.Labels...),
		softmax: cfg.Softmax,
		session: session,
		input:   input,
		output:  output,
	}, nil
}

// Classify runs one inference.
func (c *ONNXClassifier) Classify(features []float32) (Prediction, error) {
	if err := checkFeatures(features); err != nil {
		return Prediction{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Prediction{}, errors.New("onnx: classifier closed")
	}

	copy(c.input.GetData(), features)
	if err := c.session.Run(); err != nil {
		return Prediction{}, fmt.Errorf("onnx: run: %w", err)
	}

	scores := append([]float32(nil), c.output.GetData()...)
	return decode(scores, c.labels, c.softmax), nil
}

// Close releases ONNX Runtime resources. Safe to call multiple times.
func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	if c.input != nil {
		c.input.Destroy()
		c.input = nil
	}
	if c.output != nil {
		c.output.Destroy()
		c.output = nil
	}
	return nil
}

// decode picks the top label from a score vector.
func decode(scores []float32, labels []string, applySoftmax bool) Prediction {
	if applySoftmax {
		softmax(scores)
	}
	idx, val := argmax(scores)
	if idx < 0 || idx >= len(labels) {
		return Prediction{}
	}
	return Prediction{Label: labels[idx], Confidence: float64(val)}
}
