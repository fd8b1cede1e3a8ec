package automodeler

import (
	"fmt"
	"net/url"

	lru "github.com/hashicorp/golang-lru/v2"

	pkghttp "github.com/jdziat/automodeler-go/pkg/http"
)

// Client is the AutoModeler backend client.
type Client struct {
	config  *Config
	http    pkghttp.Doer
	jar     *sessionJar
	rootURL *url.URL
	logger  StructuredLogger

	auth          *AuthClient
	datasets      *DatasetsClient
	projects      *ProjectsClient
	preprocessing *PreprocessingClient
	algorithms    *AlgorithmsClient
	features      *FeaturesClient
	training      *TrainingClient
	evaluation    *EvaluationClient
	plots         *PlotsClient
	predictions   *PredictionsClient
}

// New creates a new client for the backend at baseURL.
//
// Example:
//
//	client, err := automodeler.New("http://localhost:5000",
//	    automodeler.WithTimeout(2*time.Minute),
//	)
func New(baseURL string, opts ...ConfigOption) (*Client, error) {
	cfg := &Config{
		BaseURL:          baseURL,
		PreviewCacheSize: DefaultPreviewCacheSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a new client with the given configuration.
func NewWithConfig(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, ErrNilRequest
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	root, err := url.Parse(cfg.BaseURL + "/")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	jar := newSessionJar()
	c := &Client{
		config:  cfg,
		http:    newHTTPClient(cfg, jar),
		jar:     jar,
		rootURL: root,
		logger:  cfg.StructuredLogger,
	}

	var cache *lru.Cache[string, *Preview]
	if cfg.PreviewCacheSize > 0 {
		cache, err = lru.New[string, *Preview](cfg.PreviewCacheSize)
		if err != nil {
			return nil, fmt.Errorf("%w: preview cache: %v", ErrInvalidConfig, err)
		}
	}

	c.auth = &AuthClient{client: c}
	c.datasets = &DatasetsClient{http: c.http, cache: cache}
	c.projects = &ProjectsClient{http: c.http}
	c.preprocessing = &PreprocessingClient{http: c.http}
	c.algorithms = &AlgorithmsClient{http: c.http}
	c.features = &FeaturesClient{http: c.http}
	c.training = &TrainingClient{http: c.http}
	c.evaluation = &EvaluationClient{http: c.http}
	c.plots = &PlotsClient{http: c.http}
	c.predictions = &PredictionsClient{http: c.http}

	c.logger.Debug("automodeler: client created", "base_url", cfg.BaseURL)
	return c, nil
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Logger returns the client's logger.
func (c *Client) Logger() StructuredLogger {
	return c.logger
}

// Auth returns the authentication sub-client.
func (c *Client) Auth() *AuthClient { return c.auth }

// Datasets returns the dataset preview sub-client.
func (c *Client) Datasets() *DatasetsClient { return c.datasets }

// Projects returns the project sub-client.
func (c *Client) Projects() *ProjectsClient { return c.projects }

// Preprocessing returns the preprocessing sub-client.
func (c *Client) Preprocessing() *PreprocessingClient { return c.preprocessing }

// Algorithms returns the algorithm documentation sub-client.
func (c *Client) Algorithms() *AlgorithmsClient { return c.algorithms }

// Features returns the feature selection sub-client.
func (c *Client) Features() *FeaturesClient { return c.features }

// Training returns the training sub-client.
func (c *Client) Training() *TrainingClient { return c.training }

// Evaluation returns the evaluation sub-client.
func (c *Client) Evaluation() *EvaluationClient { return c.evaluation }

// Plots returns the plot sub-client.
func (c *Client) Plots() *PlotsClient { return c.plots }

// Predictions returns the prediction sub-client.
func (c *Client) Predictions() *PredictionsClient { return c.predictions }

// Close releases idle connections held by the client. The client remains
// usable afterwards.
func (c *Client) Close() {
	if ic, ok := c.http.(interface{ CloseIdleConnections() }); ok {
		ic.CloseIdleConnections()
	}
}
