// Package wizard coordinates the model-building wizard of an AutoModeler
// backend: dataset intake, preprocessing, algorithm choice, feature
// selection, and the results viewer.
//
// Each step is a separate value with its own lifetime. A step is created
// with a context; closing the step (or cancelling that context) aborts its
// in-flight requests, and any response that arrives afterwards is discarded
// with ErrStale instead of mutating the step. Submissions are guarded
// against double invocation with ErrInFlight.
//
// Steps share state only through a carrier (see pkg/carrier). The Wizard
// type knows which carrier keys each step produces, so it can resume an
// interrupted run or send the user back when a prerequisite is missing:
//
//	session := wizard.NewSession(client, store)
//	w := wizard.New(session)
//	if err := w.Begin(wizard.LearningSupervised); err != nil {
//	    return err
//	}
//	intake, err := w.Intake(ctx)
//	if err != nil {
//	    return err
//	}
//	defer intake.Close()
//
// All numerical work happens on the backend. The steps only shape payloads
// and keep local state.
package wizard
