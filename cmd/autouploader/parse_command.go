package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"autouploader/internal/release"
)

type parseView struct {
	Filename   string   `json:"filename"`
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	Kind       string   `json:"kind"`
	Season     int      `json:"season,omitempty"`
	Episode    int      `json:"episode,omitempty"`
	Quality    string   `json:"quality,omitempty"`
	PostTitle  string   `json:"post_title"`
	SearchTerm string   `json:"search_term"`
	Tags       []string `json:"tags"`
}

func newParseView(filename string) parseView {
	id := release.Parse(filename)
	view := parseView{
		Filename:   id.Filename,
		Key:        id.RawKey,
		Title:      id.CleanTitle,
		Kind:       string(id.Kind),
		Quality:    string(id.Quality),
		PostTitle:  id.PostTitle(),
		SearchTerm: id.SearchTerm(),
		Tags:       id.Tags(),
	}
	if id.Episode != nil {
		view.Season = id.Episode.Season
		view.Episode = id.Episode.Episode
	}
	return view
}

func newParseCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:         "parse <filename>",
		Short:       "Show how a release filename is interpreted",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			view := newParseView(args[0])
			if asJSON {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderField("Key", view.Key))
			fmt.Fprintln(out, renderField("Title", view.Title))
			fmt.Fprintln(out, renderField("Kind", view.Kind))
			if view.Season > 0 || view.Episode > 0 {
				fmt.Fprintln(out, renderField("Season", strconv.Itoa(view.Season)))
				fmt.Fprintln(out, renderField("Episode", strconv.Itoa(view.Episode)))
			}
			fmt.Fprintln(out, renderField("Quality", dash(view.Quality)))
			fmt.Fprintln(out, renderField("Post title", view.PostTitle))
			fmt.Fprintln(out, renderField("Tags", dash(strings.Join(view.Tags, ", "))))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
