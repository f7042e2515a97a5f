package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/journal/pkg/core"
)

var (
	addText  string
	addTitle string
	addName  string
	addTUI   bool
)

const promptText = "Write your reflection: "

var addCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Add a reflection to the journal",
	Long: `Add a reflection to the journal.

The text comes from --text, the arguments, or an interactive prompt.
Exit status is 0 when saved, 2 when the reflection is rejected
(empty, too short or too long) and 1 on any other failure.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(nil)
		if err != nil {
			return err
		}

		text := addText
		if text == "" && len(args) > 0 {
			text = strings.Join(args, " ")
		}
		if text == "" {
			if addTUI {
				text, err = promptTUI(cmd.InOrStdin(), cmd.OutOrStdout())
			} else {
				text, err = promptLine(cmd.InOrStdin(), cmd.OutOrStdout())
			}
			if err != nil {
				return err
			}
		}

		in := core.Input{Text: text, Title: addTitle, Name: addName, Source: "cli"}
		return submit(cmd.Context(), svc, in, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addText, "text", "t", "", "Reflection text (skips the prompt)")
	addCmd.Flags().StringVar(&addTitle, "title", "", "Entry title")
	addCmd.Flags().StringVar(&addName, "name", "", "Author name")
	addCmd.Flags().BoolVar(&addTUI, "tui", false, "Use a multi-line editor instead of a single-line prompt")
}

// promptLine asks for a single line. EOF without input yields "".
func promptLine(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, promptText)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read reflection: %w", err)
	}
	return line, nil
}

// submit saves in and reports the outcome. Rejections map to exit code 2.
func submit(ctx context.Context, svc *core.Service, in core.Input, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := svc.Submit(ctx, in)
	if core.IsRejected(err) {
		return &exitError{code: 2, err: err}
	}
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("failed to save reflection: %w", err)}
	}

	fmt.Fprintf(out, "Entry #%d added (%s)\n", len(res.Entries), res.Entry.Date)
	return nil
}
