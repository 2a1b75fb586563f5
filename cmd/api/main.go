package main

import (
	"go.uber.org/fx"

	"github.com/BruksfildServices01/massage-booking/internal/app"
)

func main() {
	fx.New(
		app.InfraModule,
		app.RepositoryModule,
		app.UsecaseModule,
		app.HTTPModule,
	).Run()
}
