// Command reflect runs one reflection task from the terminal and prints only
// the final assistant output; intermediate rounds stay in logs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/autocritique/reflect-go/internal/client"
	"github.com/autocritique/reflect-go/internal/config"
	"github.com/autocritique/reflect-go/internal/observability"
	"github.com/autocritique/reflect-go/internal/reflection"
	"github.com/autocritique/reflect-go/internal/verify"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	steps := flag.Int("steps", 0, "override max steps")
	doVerify := flag.Bool("verify", false, "verify the final output and print the result")
	flag.Parse()

	task := strings.Join(flag.Args(), " ")
	if task == "" {
		task = "Generate a Python implementation of the Merge Sort algorithm"
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(os.Stderr, cfg.SlogLevel())

	chatClient, err := client.New(cfg.Provider, cfg.APIKey, cfg.BaseURL, cfg.Model)
	if err != nil {
		logger.Error("Failed to create chat client", "error", err, "provider", cfg.Provider)
		os.Exit(1)
	}

	loopCfg := reflection.Config{
		Model:            cfg.Model,
		GenerationPrompt: cfg.Loop.GenerationPrompt,
		ReflectionPrompt: cfg.Loop.ReflectionPrompt,
		MaxSteps:         cfg.Loop.MaxSteps,
		StopOnApproval:   cfg.Loop.StopOnApprovalEnabled(),
		StepDelay:        cfg.Loop.StepDelay(),
	}
	if *steps > 0 {
		loopCfg.MaxSteps = *steps
	}

	agent := reflection.New(chatClient, loopCfg)

	result, err := agent.Run(context.Background(), task)
	if err != nil {
		logger.Error("Reflection run failed", "error", err)
		os.Exit(1)
	}

	fmt.Println(result.FinalAssistant)

	if *doVerify {
		verifier := verify.New(cfg.Verifier.PythonBin, cfg.Verifier.Timeout())
		check, err := verifier.VerifyGenerationText(context.Background(), result.FinalAssistant)
		if err != nil {
			logger.Error("Verification failed", "error", err)
			os.Exit(1)
		}
		encoded, _ := json.MarshalIndent(check, "", "  ")
		fmt.Fprintln(os.Stderr, string(encoded))
	}
}

func loadConfig(explicit string) (*config.Config, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
