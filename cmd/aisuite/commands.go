package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/inercia/go-aisuite/pkg/factory"
	"github.com/inercia/go-aisuite/pkg/llm"
	"github.com/inercia/go-aisuite/pkg/providers/gemini"
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>...",
	Short: "Send a chat completion; every argument is one message",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

var generateCmd = &cobra.Command{
	Use:   "generate <text>",
	Short: "Generate content, optionally with uploaded files attached",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a file and print its handle",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models available to the API key",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := factory.New().CreateClient(clientConfig(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	messages := make([]llm.Message, 0, len(args))
	for _, arg := range args {
		messages = append(messages, llm.NewTextMessage(llm.RoleUser, arg))
	}

	resp, err := client.ChatCompletion(cmd.Context(), llm.ChatRequest{
		Model:             model,
		Messages:          messages,
		GenerationOptions: generationOptions(cmd, cfg),
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), resp.GetText())
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := gemini.NewClient(clientConfig(cfg))
	if err != nil {
		return err
	}

	for _, path := range attachPaths {
		file, err := client.UploadFile(cmd.Context(), path)
		if err != nil {
			return err
		}
		client.AttachFile(file)
	}

	resp, err := client.GenerateContent(cmd.Context(), model, genai.Text(args[0]), generationOptions(cmd, cfg))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), resp.GetText())
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := gemini.NewClient(clientConfig(cfg))
	if err != nil {
		return err
	}

	file, err := client.UploadFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "name:      %s\n", file.Name)
	fmt.Fprintf(out, "uri:       %s\n", file.URI)
	fmt.Fprintf(out, "mime type: %s\n", file.MIMEType)
	return nil
}

func runModels(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := factory.New().CreateClient(clientConfig(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	lister, ok := client.(llm.ModelLister)
	if !ok {
		return fmt.Errorf("provider %q cannot list models", client.GetModelInfo().Provider)
	}

	names, err := lister.ListModels(cmd.Context())
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
