package wizard

import (
	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/pkg/carrier"
)

// Carrier namespaces used by a Session.
const (
	AuthNamespace   = "auth"
	WizardNamespace = "wizard"
)

// Keys of the auth namespace.
var (
	KeyUsername       = carrier.NewKey[string]("username")
	KeySessionCookies = carrier.NewKey[[]automodeler.SessionCookie]("session_cookies")
)

// Keys of the wizard namespace, in the order the steps write them.
var (
	KeyLearningType         = carrier.NewKey[LearningType]("learning_type")
	KeyProjectName          = carrier.NewKey[string]("project_name")
	KeyFilename             = carrier.NewKey[string]("filename")
	KeyDatasetSource        = carrier.NewKey[automodeler.DatasetSource]("dataset_source")
	KeyPreprocessingEnabled = carrier.NewKey[bool]("preprocessing_enabled")
	KeyPreprocessingOptions = carrier.NewKey[[]string]("preprocessing_options")
	KeyPreprocessingMethods = carrier.NewKey[[]string]("preprocessing_methods")
	KeyPreprocessingSkipped = carrier.NewKey[bool]("preprocessing_skipped")
	KeyModelType            = carrier.NewKey[automodeler.ModelCategory]("model_type")
	KeyAlgorithm            = carrier.NewKey[string]("algorithm")
	KeyAlgorithmParameters  = carrier.NewKey[map[string]any]("algorithm_parameters")
	KeySelectedFeatures     = carrier.NewKey[[]string]("selected_features")
	KeyTargetFeature        = carrier.NewKey[string]("target_feature")
	KeyModelInfo            = carrier.NewKey[automodeler.ModelInfo]("model_info")
)

// LearningType is the kind of run.
type LearningType = automodeler.LearningType

// Learning types.
const (
	LearningSupervised    = automodeler.LearningSupervised
	LearningUnsupervised  = automodeler.LearningUnsupervised
	LearningPreprocessing = automodeler.LearningPreprocessing
)
