package main

import (
	"go.uber.org/fx"

	"github.com/leafyhealth/accounting-management/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
