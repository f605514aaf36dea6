package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// InferenceConfig describes a model served over the KServe v2 / Triton REST protocol
type InferenceConfig struct {
	BaseURL    string        // e.g. http://localhost:8000
	ModelName  string        // serving name of the exported classifier
	OutputName string        // output tensor holding the logits
	Timeout    time.Duration // per inference request
}

// DefaultInferenceConfig returns default inference settings
func DefaultInferenceConfig() InferenceConfig {
	return InferenceConfig{
		BaseURL:    "http://localhost:8000",
		OutputName: "logits",
		Timeout:    30 * time.Second,
	}
}

// ServingName derives a serving model name from a hub identifier:
// "HooshvareLab/bert-fa-base-uncased-sentiment-snappfood" becomes
// "bert-fa-base-uncased-sentiment-snappfood".
func ServingName(modelID string) string {
	if i := strings.LastIndex(modelID, "/"); i >= 0 {
		return modelID[i+1:]
	}
	return modelID
}

type tensor struct {
	Name     string  `json:"name"`
	Shape    []int   `json:"shape"`
	Datatype string  `json:"datatype"`
	Data     []int64 `json:"data"`
}

type outputTensor struct {
	Name     string    `json:"name"`
	Shape    []int     `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float64 `json:"data"`
}

type inferRequest struct {
	ID      string              `json:"id"`
	Inputs  []tensor            `json:"inputs"`
	Outputs []map[string]string `json:"outputs"`
}

type inferResponse struct {
	ModelName string         `json:"model_name"`
	ID        string         `json:"id"`
	Outputs   []outputTensor `json:"outputs"`
}

type tensorMetadata struct {
	Name     string `json:"name"`
	Datatype string `json:"datatype"`
	Shape    []int  `json:"shape"`
}

type modelMetadata struct {
	Name     string           `json:"name"`
	Versions []string         `json:"versions"`
	Platform string           `json:"platform"`
	Inputs   []tensorMetadata `json:"inputs"`
	Outputs  []tensorMetadata `json:"outputs"`
}

// InferenceClient is a loaded, read-only handle to a served classifier.
// It is safe for concurrent use; nothing is modified after LoadModel returns.
type InferenceClient struct {
	config     InferenceConfig
	httpClient *http.Client
	inputs     map[string]bool
	platform   string
	logger     *slog.Logger
}

// LoadModel verifies that the model is ready and produces a two-class output,
// returning an immutable handle for inference.
func LoadModel(ctx context.Context, config InferenceConfig, logger *slog.Logger) (*InferenceClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ModelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if config.OutputName == "" {
		config.OutputName = DefaultInferenceConfig().OutputName
	}

	c := &InferenceClient{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		inputs: make(map[string]bool),
		logger: logger,
	}

	if err := c.checkReady(ctx); err != nil {
		return nil, err
	}

	meta, err := c.metadata(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.applyMetadata(meta); err != nil {
		return nil, err
	}

	logger.Info("sentiment model loaded",
		"model", config.ModelName,
		"platform", c.platform,
		"base_url", config.BaseURL,
	)
	return c, nil
}

func (c *InferenceClient) modelURL(suffix string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/v2/models/" + url.PathEscape(c.config.ModelName) + suffix
}

func (c *InferenceClient) checkReady(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelURL("/ready"), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach inference server: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model %s is not ready: %s", c.config.ModelName, resp.Status)
	}
	return nil
}

func (c *InferenceClient) metadata(ctx context.Context) (*modelMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelURL(""), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch model metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model metadata error: %s", resp.Status)
	}

	var meta modelMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode model metadata: %w", err)
	}
	return &meta, nil
}

func (c *InferenceClient) applyMetadata(meta *modelMetadata) error {
	for _, in := range meta.Inputs {
		c.inputs[in.Name] = true
	}
	if !c.inputs["input_ids"] {
		return fmt.Errorf("model %s has no input_ids input", c.config.ModelName)
	}

	for _, out := range meta.Outputs {
		if out.Name != c.config.OutputName {
			continue
		}
		if n := len(out.Shape); n == 0 || (out.Shape[n-1] != NumClasses && out.Shape[n-1] != -1) {
			return fmt.Errorf("model %s output %s has shape %v, want [-1 %d]",
				c.config.ModelName, out.Name, out.Shape, NumClasses)
		}
		c.platform = meta.Platform
		return nil
	}
	return fmt.Errorf("model %s has no %s output", c.config.ModelName, c.config.OutputName)
}

// Logits sends the whole batch in a single infer request
func (c *InferenceClient) Logits(ctx context.Context, batch Batch) ([][]float64, error) {
	if batch.Size() == 0 {
		return nil, fmt.Errorf("empty batch")
	}

	shape := []int{batch.Size(), batch.SeqLen}
	request := inferRequest{
		ID: uuid.New().String(),
		Inputs: []tensor{
			{Name: "input_ids", Shape: shape, Datatype: "INT64", Data: flatten(batch.InputIDs)},
		},
		Outputs: []map[string]string{{"name": c.config.OutputName}},
	}
	if c.inputs["attention_mask"] {
		request.Inputs = append(request.Inputs, tensor{Name: "attention_mask", Shape: shape, Datatype: "INT64", Data: flatten(batch.AttentionMask)})
	}
	if c.inputs["token_type_ids"] {
		request.Inputs = append(request.Inputs, tensor{Name: "token_type_ids", Shape: shape, Datatype: "INT64", Data: flatten(batch.TokenTypeIDs)})
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal infer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL("/infer"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call inference server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("inference error: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var result inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode infer response: %w", err)
	}

	logits, err := c.unpack(result, batch.Size())
	if err != nil {
		return nil, err
	}

	c.logger.Debug("inference completed",
		"request_id", request.ID,
		"batch_size", batch.Size(),
		"seq_len", batch.SeqLen,
		"duration", time.Since(start),
	)
	return logits, nil
}

func (c *InferenceClient) unpack(result inferResponse, rows int) ([][]float64, error) {
	for _, out := range result.Outputs {
		if out.Name != c.config.OutputName {
			continue
		}
		if len(out.Shape) != 2 || out.Shape[0] != rows || out.Shape[1] != NumClasses {
			return nil, fmt.Errorf("unexpected %s shape %v for batch of %d", out.Name, out.Shape, rows)
		}
		if len(out.Data) != rows*NumClasses {
			return nil, fmt.Errorf("output %s has %d values, want %d", out.Name, len(out.Data), rows*NumClasses)
		}
		logits := make([][]float64, rows)
		for i := range logits {
			logits[i] = out.Data[i*NumClasses : (i+1)*NumClasses]
		}
		return logits, nil
	}
	return nil, fmt.Errorf("infer response has no %s output", c.config.OutputName)
}
