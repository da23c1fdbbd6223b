package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"taxtally/deductions/cmd/batch"
	"taxtally/deductions/cmd/classify"
	"taxtally/deductions/cmd/parse"
	"taxtally/deductions/cmd/root"
	"taxtally/deductions/cmd/seed"
	"taxtally/deductions/cmd/serve"
	"taxtally/deductions/cmd/tax"
	"taxtally/deductions/internal/config"
)

func init() {
	// .env must be loaded before the first logger is created so LOG_LEVEL
	// applies to the bootstrap output as well.
	config.LoadEnv()
	configureLogLevel()

	root.Init()

	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(parse.Cmd)
	root.Cmd.AddCommand(classify.Cmd)
	root.Cmd.AddCommand(tax.Cmd)
	root.Cmd.AddCommand(seed.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
}

// configureLogLevel sets the global logrus level from LOG_LEVEL.
func configureLogLevel() {
	level, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
