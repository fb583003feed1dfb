package main

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/rkode/internal/problems"
	"github.com/san-kum/rkode/internal/tableau"
)

func listMethods(cmd *cobra.Command, args []string) error {
	names := tableau.Names()
	if len(args) > 0 {
		names = args
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tORDER\tSTAGES\tKIND")
	var tabs []*tableau.Tableau
	for _, name := range names {
		t, err := tableau.Lookup(name)
		if err != nil {
			return err
		}
		kind := "fixed"
		if t.IsAdaptive() {
			kind = "embedded"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", t.Name(), t.Order(), t.NumStages(), kind)
		tabs = append(tabs, t)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if showTableau {
		for _, t := range tabs {
			fmt.Printf("\n%s\n", t)
		}
	}
	return nil
}

func listProblems(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIM\tT FINAL\tH\tPARAMS\tDESCRIPTION")
	for _, info := range problems.List() {
		sys, err := problems.New(info.Name)
		if err != nil {
			return err
		}
		p := sys.GetParams()
		kv := make([]string, 0, len(p))
		for _, k := range slices.Sorted(maps.Keys(p)) {
			kv = append(kv, fmt.Sprintf("%s=%g", k, p[k]))
		}
		fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%s\t%s\n",
			info.Name, sys.Dim(), info.TFinal, info.StepSize, strings.Join(kv, ","), info.Summary)
	}
	return w.Flush()
}
