package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/sarif-cli/pkg/adk"
	"github.com/user/sarif-cli/pkg/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Run: func(cmd *cobra.Command, args []string) {
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Println("Welcome to sarif-cli Setup Wizard")
		fmt.Println("---------------------------------")

		// 1. Select Provider
		fmt.Println("Step 1: Choose your LLM Provider")
		fmt.Println("1. OpenAI-compatible (incl. local Ollama)")
		fmt.Println("2. Gemini (Google)")
		fmt.Println("3. Anthropic")
		fmt.Print("Enter number or name > ")
		scanner.Scan()
		choice := strings.ToLower(strings.TrimSpace(scanner.Text()))

		var provider string
		switch choice {
		case "1", "openai", "ollama":
			provider = "openai"
		case "2", "gemini":
			provider = "gemini"
		case "3", "anthropic":
			provider = "anthropic"
		default:
			fmt.Println("Invalid choice. Aborting.")
			return
		}

		// 2. Base URL (OpenAI-compatible servers only)
		var baseURL string
		if provider == "openai" {
			fmt.Println("\nStep 2: Enter base URL (empty for http://localhost:11434)")
			fmt.Print("> ")
			scanner.Scan()
			baseURL = strings.TrimSpace(scanner.Text())
			if baseURL == "" {
				baseURL = "http://localhost:11434"
			}
		}

		// 3. Enter API Key
		fmt.Printf("\nStep 3: Enter API Key for %s (may be empty for local servers)\n", provider)
		fmt.Print("> ")
		scanner.Scan()
		apiKey := strings.TrimSpace(scanner.Text())
		if apiKey == "" && provider != "openai" {
			fmt.Println("API Key cannot be empty.")
			return
		}

		// 4. Fetch Models
		fmt.Println("\nStep 4: Validating and fetching available models...")
		ctx := context.Background()

		tempProvider, err := adk.NewProvider(ctx, provider, apiKey, "", baseURL)
		if err != nil {
			fmt.Printf("Error initializing provider: %v\n", err)
			return
		}

		models, err := tempProvider.ListModels(ctx)
		var selectedModel string

		if err != nil {
			fmt.Printf("Warning: Could not fetch models from API: %v\n", err)
			fmt.Println("Please enter model name manually (e.g., 'qwen2.5:7b', 'gpt-4'):")
			fmt.Print("> ")
			scanner.Scan()
			selectedModel = strings.TrimSpace(scanner.Text())
		} else {
			fmt.Printf("Successfully retrieved %d models.\n", len(models))
			for i, m := range models {
				fmt.Printf("%d. %s\n", i+1, m)
			}
			fmt.Print("Select Model (number) > ")
			scanner.Scan()
			selStr := strings.TrimSpace(scanner.Text())
			selIdx, err := strconv.Atoi(selStr)
			if err != nil || selIdx < 1 || selIdx > len(models) {
				fmt.Println("Invalid selection. Using first available model.")
				selectedModel = models[0]
			} else {
				selectedModel = models[selIdx-1]
			}
		}

		// 5. Save Configuration
		fmt.Println("\nStep 5: Saving Configuration...")
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			return
		}

		cfg.SelectedProvider = provider
		cfg.SelectedModel = selectedModel
		cfg.SetAPIKey(provider, apiKey)
		if baseURL != "" {
			cfg.SetBaseURL(provider, baseURL)
		}

		if err := config.SaveConfig(cfg); err != nil {
			fmt.Printf("Error saving config: %v\n", err)
			return
		}

		fmt.Println("---------------------------------")
		fmt.Println("Setup Complete!")
		fmt.Printf("Provider: %s\n", provider)
		fmt.Printf("Model:    %s\n", selectedModel)
		fmt.Println("You can now run 'sarif-cli analyze -i <project> --enable-llm'")
	},
}

func init() {
	configCmd.AddCommand(setupCmd)
}
