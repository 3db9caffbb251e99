package stepper

import "github.com/counselops/matterflow/pkg/models"

// ShouldShowFormSection decides whether the form section tied to a status
// should render. Outside the terminal overlays everything renders; a
// cancelled or held request only shows the sections it actually reached, even
// when the record still carries stale values for later ones. A missing
// previous status truncates at Draft.
func ShouldShowFormSection(section, current models.ReviewStatus, previous *models.ReviewStatus) bool {
	if !current.IsTerminal() {
		return true
	}

	reached := models.StatusDraft
	if previous != nil {
		reached = *previous
	}

	return section.AtOrBefore(reached)
}
