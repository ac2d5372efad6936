package main

import (
	"encoding/json"
	"strings"

	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/citations"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type inspectedCitation struct {
	Ordinal    int                   `json:"ordinal"`
	Title      string                `json:"title"`
	DOI        string                `json:"doi"`
	Candidates []citations.Candidate `json:"candidates"`
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <title>",
		Short: "Print the citations of an article that have archived candidates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			app, err := buildApplication(appConfig)
			if err != nil {
				return err
			}
			defer app.Close()

			title := strings.ReplaceAll(strings.Join(args, " "), "_", " ")
			presentation, err := app.citations.Present(cmd.Context(), title)
			if err != nil {
				return err
			}

			listed := make([]inspectedCitation, 0, len(presentation.Records))
			for _, record := range presentation.Records {
				listed = append(listed, inspectedCitation{
					Ordinal:    record.Ordinal,
					Title:      record.Title,
					DOI:        record.DOI,
					Candidates: record.Candidates,
				})
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(listed)
		},
	}
}
