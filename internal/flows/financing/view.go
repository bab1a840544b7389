package financing

import (
	"nova-client/internal/models"
)

const KYCRequiredBanner = "Complete your KYC verification before applying for financing."

// Row is one application as the list shows it.
type Row struct {
	Application models.FinancingApplication
	Label       string
	Action      models.Action
}

// View is what the financing screen renders.
type View struct {
	CanApply  bool
	KYCBanner string
	Rows      []Row
}

// View derives the screen from the last fetched list and the current user.
// The apply gate mirrors the server's KYC check and is not a security
// boundary.
func (c *Coordinator) View(user *models.User) View {
	v := View{CanApply: user.CanApply()}
	if !v.CanApply {
		v.KYCBanner = KYCRequiredBanner
	}
	for _, app := range c.Applications() {
		v.Rows = append(v.Rows, Row{
			Application: app,
			Label:       app.Status.Label(),
			Action:      app.Status.Action(),
		})
	}
	return v
}
