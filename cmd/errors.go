package cmd

import (
	"errors"
	"fmt"

	"github.com/complypoint/complyctl/internal/utils"
	"github.com/complypoint/complyctl/pkg/apierr"
	"github.com/complypoint/complyctl/pkg/upgrade"
)

// presentError routes a failed operation to the right surface: plan-gate
// denials always become an upgrade prompt, field validation lists its fields,
// everything else is a generic failure. The plan-gate and generic paths must
// never be conflated.
func presentError(err error) {
	var gateErr *apierr.PlanGateDenied
	var vErr *apierr.ValidationError
	switch {
	case errors.As(err, &gateErr):
		fmt.Println(upgrade.Render(upgrade.FromDetail(gateErr.Detail, upgrade.VariantCard)))
	case errors.As(err, &vErr):
		for field, msg := range vErr.Fields {
			utils.Log.Error(field, ": ", msg)
		}
	default:
		utils.Log.Error("Operation failed: ", err)
	}
}
