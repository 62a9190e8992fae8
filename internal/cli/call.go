package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/omniture/pkg/jsonpath"
)

func newCallCmd(a *app) *cobra.Command {
	var (
		body    string
		extract []string
		raw     bool
	)

	cmd := &cobra.Command{
		Use:   "call API.Method",
		Short: "Call any API method and print the response",
		Long: `Call any API method and print the response.

--extract takes a JSONPath expression and may be repeated. Prefix an
expression with NAME= to choose its key when several values are extracted.`,
		Example: `  omniture call Company.GetReportSuites --extract '$.report_suites[*].rsid'
  omniture call Report.GetStatus --body '{"reportID": 131013}' --extract '$.status' --raw
  omniture call Company.GetReportSuites -e 'ids=$.report_suites[*].rsid' -e 'titles=$.report_suites[*].site_title'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, method, ok := strings.Cut(args[0], ".")
			if !ok || api == "" || method == "" {
				return fmt.Errorf("invalid method '%s', expected API.Method", args[0])
			}

			var params map[string]any
			if body != "" {
				if err := json.Unmarshal([]byte(body), &params); err != nil {
					return fmt.Errorf("invalid --body: %w", err)
				}
			}

			paths := extractPaths(extract)
			if raw && len(paths) > 1 {
				return fmt.Errorf("--raw takes a single --extract expression, got %d", len(paths))
			}

			formatter, err := a.formatter()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			account, err := a.connect(ctx, nil)
			if err != nil {
				return err
			}

			resp, err := account.Request(ctx, api, method, params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if raw {
				path := "$"
				for _, p := range paths {
					path = p
				}
				text, err := jsonpath.ExtractString(resp, path)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
				return nil
			}

			if resp, err = extractAll(resp, extract, paths); err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatRaw(resp))
			return nil
		},
	}

	cmd.Flags().StringVarP(&body, "body", "b", "", "JSON object sent as the request parameters")
	cmd.Flags().StringArrayVarP(&extract, "extract", "e", nil, "JSONPath expression applied to the response, optionally NAME=EXPR (repeatable)")
	cmd.Flags().BoolVarP(&raw, "raw", "r", false, "Print the extracted value as plain text")

	return cmd
}

// extractPaths names each --extract expression. Expressions without a
// NAME= prefix are named by themselves.
func extractPaths(exprs []string) map[string]string {
	paths := make(map[string]string, len(exprs))
	for _, expr := range exprs {
		name, path, ok := strings.Cut(expr, "=")
		if !ok || strings.HasPrefix(expr, "$") {
			name, path = expr, expr
		}
		paths[name] = path
	}
	return paths
}

// extractAll applies the --extract expressions. A single unnamed
// expression yields its value; anything else yields an object keyed by name.
func extractAll(resp gjson.Result, exprs []string, paths map[string]string) (gjson.Result, error) {
	switch {
	case len(paths) == 0:
		return resp, nil
	case len(exprs) == 1 && paths[exprs[0]] == exprs[0]:
		return jsonpath.Extract(resp, exprs[0])
	}

	values, err := jsonpath.ExtractMultiple(resp, paths)
	if err != nil {
		return gjson.Result{}, err
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var obj strings.Builder
	obj.WriteString("{")
	for i, name := range names {
		if i > 0 {
			obj.WriteString(",")
		}
		key, _ := json.Marshal(name)
		obj.Write(key)
		obj.WriteString(":")
		obj.WriteString(values[name].Raw)
	}
	obj.WriteString("}")

	return gjson.Parse(obj.String()), nil
}
