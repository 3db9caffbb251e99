package stepper

import "github.com/counselops/matterflow/pkg/models"

// canonicalSteps is the base sequence every request type currently follows.
var canonicalSteps = []StepDescriptor{
	{
		Key:    StepDraft,
		Label:  "Draft",
		Detail: "Prepare the request and attach documents for review.",
		Status: models.StatusDraft,
		Content: "Complete the request form, upload the material to be " +
			"reviewed, and submit when ready.",
		Order: 0,
	},
	{
		Key:    StepLegalIntake,
		Label:  "Legal Intake",
		Detail: "Legal operations validates the request and assigns an attorney.",
		Status: models.StatusLegalIntake,
		Content: "Legal operations confirms the request is complete and " +
			"routes it to the right attorney.",
		Order: 1,
	},
	{
		Key:    StepInReview,
		Label:  "In Review",
		Detail: "Legal and/or compliance review the submitted material.",
		Status: models.StatusInReview,
		Content: "Reviewers evaluate the material and may request changes " +
			"from the submitter before recording an outcome.",
		Order: 2,
	},
	{
		Key:    StepCloseout,
		Label:  "Closeout",
		Detail: "Final disposition is recorded and the request is archived.",
		Status: models.StatusCloseout,
		Content: "Outcomes are recorded against the request and final " +
			"versions of the documents are archived.",
		Order: 3,
	},
}

var finraStep = StepDescriptor{
	Key:      StepFINRA,
	Label:    "FINRA Documents",
	Detail:   "Foreside files the material with FINRA and returns the filed copy.",
	Status:   models.StatusAwaitingFINRADocuments,
	Optional: true,
	Content: "Required only when Foreside review applies: the filed copy " +
		"and FINRA response letter are attached to the request.",
	Order: 4,
}

// StepsFor returns the ordered step descriptors for a request type. All
// current request types share the canonical sequence; the parameter exists
// for future type-specific variation.
func StepsFor(_ models.RequestType) []StepDescriptor {
	steps := make([]StepDescriptor, len(canonicalSteps))
	copy(steps, canonicalSteps)

	return steps
}

// stepTransform conditionally reshapes a step sequence for a given request.
type stepTransform func([]StepDescriptor, models.ReviewStatus, models.RequestMetadata) []StepDescriptor

// conditionalSteps is the transformer pipeline applied over the canonical
// sequence. New optional stages slot in here rather than at call sites.
var conditionalSteps = []stepTransform{
	appendFINRAStep,
}

func appendFINRAStep(steps []StepDescriptor, current models.ReviewStatus, meta models.RequestMetadata) []StepDescriptor {
	if !finraStepPresent(current, meta) {
		return steps
	}

	return append(steps, finraStep)
}

// finraStepPresent reports whether the optional FINRA step belongs in the
// sequence: either Foreside review is required up front, or the request has
// already reached the awaiting-documents status.
func finraStepPresent(current models.ReviewStatus, meta models.RequestMetadata) bool {
	return meta.IsForesideReviewRequired || current == models.StatusAwaitingFINRADocuments
}

// buildSteps assembles the full descriptor sequence for one request.
func buildSteps(requestType models.RequestType, current models.ReviewStatus, meta models.RequestMetadata) []StepDescriptor {
	steps := StepsFor(requestType)
	for _, transform := range conditionalSteps {
		steps = transform(steps, current, meta)
	}

	return steps
}
