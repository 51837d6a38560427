package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-qbe/pkg/exports"
	"github.com/goliatone/go-qbe/pkg/formset"
	"github.com/goliatone/go-qbe/pkg/query"
	"github.com/goliatone/go-qbe/pkg/registry"
)

var (
	flagExecute bool
	flagFormat  string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Build a query interactively and print its SQL",
	Long: `Query walks through the same condition rows the web form offers and
prints the resulting SQL. With --execute and a database it runs the query and
writes the results to stdout in the chosen format.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&flagExecute, "execute", false, "run the query against --db")
	queryCmd.Flags().StringVar(&flagFormat, "format", "csv", "output format for executed queries")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	reg, err := loadModels(cmd.Context(), db)
	if err != nil {
		return err
	}

	fs, err := promptConditions(reg)
	if err != nil {
		return err
	}
	if !fs.Validate(reg) {
		return fmt.Errorf("conditions failed validation")
	}

	q, err := query.Build(reg, fs)
	if err != nil {
		return err
	}
	fmt.Println(q.RawSQL(true))

	if !flagExecute {
		return nil
	}
	if db == nil {
		return fmt.Errorf("--execute needs --db")
	}

	exporter, ok := exports.DefaultRegistry().Lookup(flagFormat)
	if !ok {
		return fmt.Errorf("unknown format %q", flagFormat)
	}
	results, err := q.Execute(cmd.Context(), db, query.ExecOptions{Limit: fs.Limit})
	if err != nil {
		return err
	}
	return exporter.Write(os.Stdout, fs.Labels(reg, false), results.Rows)
}

// promptConditions collects condition rows one at a time, mirroring the rows
// of the tabular tab.
func promptConditions(reg *registry.Registry) (*formset.FormSet, error) {
	fs := &formset.FormSet{Prefix: formset.DefaultPrefix, Limit: formset.DefaultLimit}
	modelKeys := allModelKeys(reg)
	if len(modelKeys) == 0 {
		return nil, fmt.Errorf("the registry has no models")
	}

	for index := 0; ; index++ {
		condition, err := promptCondition(reg, modelKeys)
		if err != nil {
			return nil, err
		}
		fs.Forms = append(fs.Forms, formset.Form{Index: index, Condition: condition})

		more := false
		if err := survey.AskOne(&survey.Confirm{Message: "Add another condition?"}, &more); err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return fs, nil
}

func promptCondition(reg *registry.Registry, modelKeys []string) (formset.Condition, error) {
	var condition formset.Condition

	if err := survey.AskOne(&survey.Select{Message: "Model:", Options: modelKeys}, &condition.Model); err != nil {
		return condition, err
	}
	model, _ := reg.ModelByKey(condition.Model)
	fieldNames := make([]string, 0, len(model.Fields))
	for _, field := range model.Fields {
		fieldNames = append(fieldNames, field.Name)
	}
	if err := survey.AskOne(&survey.Select{Message: "Field:", Options: fieldNames}, &condition.Field); err != nil {
		return condition, err
	}

	if err := survey.AskOne(&survey.Confirm{Message: "Show this column?", Default: true}, &condition.Show); err != nil {
		return condition, err
	}

	lookups := append([]string{"(none)"}, formset.Lookups()...)
	lookup := ""
	if err := survey.AskOne(&survey.Select{Message: "Lookup:", Options: lookups}, &lookup); err != nil {
		return condition, err
	}
	if lookup != "(none)" {
		condition.Lookup = lookup
		if lookup != formset.LookupIsNull {
			if err := survey.AskOne(&survey.Input{Message: "Value:"}, &condition.Value); err != nil {
				return condition, err
			}
		} else {
			condition.Value = "true"
		}
	}

	sortChoice := ""
	if err := survey.AskOne(&survey.Select{
		Message: "Sort:",
		Options: []string{"(none)", formset.SortAscending, formset.SortDescending},
	}, &sortChoice); err != nil {
		return condition, err
	}
	if sortChoice != "(none)" {
		condition.Sort = sortChoice
	}
	return condition, nil
}

func allModelKeys(reg *registry.Registry) []string {
	var keys []string
	for _, app := range reg.Apps() {
		for _, model := range reg.Models(app) {
			keys = append(keys, model.Key())
		}
	}
	sort.Strings(keys)
	return keys
}
