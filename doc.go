// Package automodeler provides a Go client for the AutoModeler (ML Studio)
// backend, the service that trains, evaluates and serves scikit-learn models
// at a user's request.
//
// The backend does all numerical work. This package shapes requests, keeps the
// session cookie and decodes responses into typed values; the wizard package
// builds the step-by-step model-building flow on top of it.
//
// # Quick Start
//
//	client, err := automodeler.New("http://localhost:5000")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := client.Auth().Login(ctx, "ada", "secret"); err != nil {
//	    log.Fatal(automodeler.UserMessage(err))
//	}
//
//	preview, err := client.Datasets().PreviewPredefined(ctx, "load_iris")
//
// # Sub-clients
//
// Each backend surface has its own sub-client:
//
//	client.Auth()          // login, register, logout
//	client.Datasets()      // previews
//	client.Projects()      // create, list, show, delete, save model
//	client.Preprocessing() // column types, apply, results, report
//	client.Algorithms()    // algorithm documentation and parameter schema
//	client.Features()      // feature statistics and selection
//	client.Training()      // training result
//	client.Evaluation()    // metrics
//	client.Plots()         // plot specification
//	client.Predictions()   // prediction with a trained model
//
// # Errors
//
// Failures fall into three kinds, all implementing Error:
//
//   - *ValidationError: input rejected before any request was sent
//   - *APIError and *NetworkError: non-success status or transport failure
//   - *SemanticError: success status with {"success": false} or
//     {"status": "error"} in the body
//
// No request is ever retried automatically. Use IsRetryable to decide whether
// to offer the user a "try again" action and UserMessage for the text to show.
//
// # Configuration
//
//	client, err := automodeler.New(baseURL,
//	    automodeler.WithTimeout(2*time.Minute),
//	    automodeler.WithStructuredLogger(automodeler.NewZapAdapter(z)),
//	    automodeler.WithPreviewCacheSize(16),
//	)
//
// NewFromEnv reads AUTOMODELER_BASE_URL, AUTOMODELER_TIMEOUT and
// AUTOMODELER_DEBUG.
//
// # Thread Safety
//
// The Client and its sub-clients are safe for concurrent use.
package automodeler

// Version is the client version.
const Version = "0.4.0"
