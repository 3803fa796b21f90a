package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lorekeep/motif-engine/pkg/motif"
)

var (
	apiAddr    string
	jsonOutput bool
)

func main() {
	root := &cobra.Command{
		Use:           "motifctl",
		Short:         "Operate a running motif engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiAddr, "addr", envOr("MOTIF_API_URL", "http://localhost:8080"), "engine API address")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON responses")

	root.AddCommand(
		motifsCmd(),
		createCmd(),
		deleteCmd(),
		generateCmd(),
		advanceCmd(),
		sequenceCmd(),
		chaosCmd(),
		eventsCmd(),
		regionsCmd(),
		tickCmd(),
		contextCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func motifsCmd() *cobra.Command {
	var scope, lifecycle, region string
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "motifs [id]",
		Short: "List motifs, or show one by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)

			if len(args) == 1 {
				var m motif.Motif
				if err := client.get(cmd.Context(), "/v1/motifs/"+args[0], &m); err != nil {
					return err
				}
				return printJSON(m)
			}

			params := []string{}
			if scope != "" {
				params = append(params, "scope="+scope)
			}
			if lifecycle != "" {
				params = append(params, "lifecycle="+lifecycle)
			}
			if region != "" {
				params = append(params, "region="+region)
			}
			if activeOnly {
				params = append(params, "active=true")
			}
			path := "/v1/motifs"
			if len(params) > 0 {
				path += "?" + strings.Join(params, "&")
			}

			var motifs []*motif.Motif
			if err := client.get(cmd.Context(), path, &motifs); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(motifs)
			}
			if len(motifs) == 0 {
				fmt.Println("No motifs.")
				return nil
			}
			for _, m := range motifs {
				fmt.Printf("%-36s  %-10s  %-8s  %-8s  %4.1f  %s (created %s)\n",
					m.ID, m.Category, m.Scope, m.Lifecycle, m.Intensity, m.Name,
					humanize.Time(m.CreatedAt))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "filter by scope (local|regional|global)")
	cmd.Flags().StringVar(&lifecycle, "lifecycle", "", "filter by lifecycle phase")
	cmd.Flags().StringVar(&region, "region", "", "filter by region id")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active motifs")
	return cmd
}

func createCmd() *cobra.Command {
	var name, category, scope, region, description string
	var intensity float64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a motif with explicit attributes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			body := map[string]any{
				"category":  category,
				"scope":     scope,
				"intensity": intensity,
			}
			if name != "" {
				body["name"] = name
			}
			if description != "" {
				body["description"] = description
			}
			if region != "" {
				body["location"] = map[string]any{"region_id": region}
			}

			var m motif.Motif
			if err := client.post(cmd.Context(), "/v1/motifs", body, &m); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(m)
			}
			fmt.Printf("Created %s motif %q (%s, intensity %.1f)\n%s\n",
				m.Category, m.Name, m.Scope, m.Intensity, m.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "motif name (generated when empty)")
	cmd.Flags().StringVar(&category, "category", "mystery", "motif category")
	cmd.Flags().StringVar(&scope, "scope", "global", "motif scope")
	cmd.Flags().Float64Var(&intensity, "intensity", 5, "intensity 0-10")
	cmd.Flags().StringVar(&region, "region", "", "region id for regional motifs")
	cmd.Flags().StringVar(&description, "description", "", "motif description")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <motif-id>",
		Short: "Delete a motif",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			if err := client.delete(cmd.Context(), "/v1/motifs/"+args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted", args[0])
			return nil
		},
	}
}

func generateCmd() *cobra.Command {
	var category, scope, region string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random motif",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			body := map[string]any{}
			if category != "" {
				body["category"] = category
			}
			if scope != "" {
				body["scope"] = scope
			}
			if region != "" {
				body["location"] = map[string]any{"region_id": region}
			}

			var m motif.Motif
			if err := client.post(cmd.Context(), "/v1/motifs/generate", body, &m); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(m)
			}
			fmt.Printf("Generated %s motif %q (%s, intensity %.1f)\n%s\n",
				m.Category, m.Name, m.Scope, m.Intensity, m.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "motif category")
	cmd.Flags().StringVar(&scope, "scope", "", "motif scope")
	cmd.Flags().StringVar(&region, "region", "", "region id for regional motifs")
	return cmd
}

func advanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance <motif-id>",
		Short: "Force a motif one lifecycle step forward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			var m motif.Motif
			if err := client.post(cmd.Context(), "/v1/motifs/"+args[0]+"/advance", nil, &m); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(m)
			}
			fmt.Printf("%s is now %s\n", m.Name, m.Lifecycle)
			return nil
		},
	}
}

func sequenceCmd() *cobra.Command {
	var length int
	var theme, region string
	var progressive bool

	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Generate a narrative sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			body := map[string]any{
				"length":      length,
				"progressive": progressive,
			}
			if theme != "" {
				body["theme"] = theme
			}
			if region != "" {
				body["region_id"] = region
			}

			var res struct {
				Sequence *motif.Sequence `json:"sequence"`
				Motifs   []*motif.Motif  `json:"motifs"`
			}
			if err := client.post(cmd.Context(), "/v1/sequences", body, &res); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(res)
			}
			fmt.Printf("Sequence %s (%d parts):\n", res.Sequence.ID, len(res.Motifs))
			for _, m := range res.Motifs {
				fmt.Printf("  %d. [%s] %s (%s, intensity %.1f)\n",
					m.SequencePosition, m.Lifecycle, m.Name, m.Category, m.Intensity)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&length, "length", 3, "number of motifs in the arc")
	cmd.Flags().StringVar(&theme, "theme", "", "starting category")
	cmd.Flags().StringVar(&region, "region", "", "region id for regional parts")
	cmd.Flags().BoolVar(&progressive, "progressive", false, "ramp intensity across the arc")
	return cmd
}

func chaosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chaos",
		Short: "Roll, inject, or force chaos events",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "roll",
		Short: "Roll a chaos event type without injecting it",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			var resp map[string]string
			if err := client.post(cmd.Context(), "/v1/chaos/roll", nil, &resp); err != nil {
				return err
			}
			fmt.Println(resp["event_type"])
			return nil
		},
	})

	var triggerRegion string
	triggerCmd := &cobra.Command{
		Use:   "trigger <entity-id>",
		Short: "Trigger chaos if an entity's motif pressure warrants it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			var res struct {
				Triggered bool   `json:"triggered"`
				Trigger   string `json:"trigger"`
				Message   string `json:"message"`
			}
			path := "/v1/chaos/trigger/" + args[0]
			if triggerRegion != "" {
				path += "?region=" + url.QueryEscape(triggerRegion)
			}
			if err := client.post(cmd.Context(), path, nil, &res); err != nil {
				return err
			}
			if !res.Triggered {
				if res.Message == "" {
					res.Message = "motif pressure below threshold"
				}
				fmt.Println("No chaos:", res.Message)
				return nil
			}
			fmt.Println("Chaos triggered by", res.Trigger)
			return nil
		},
	}
	triggerCmd.Flags().StringVar(&triggerRegion, "region", "", "region to scope the chaos event to")
	cmd.AddCommand(triggerCmd)

	var forceRegion string
	forceCmd := &cobra.Command{
		Use:   "force <entity-id>",
		Short: "Force a chaos motif onto an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			path := "/v1/chaos/force/" + args[0]
			if forceRegion != "" {
				path += "?region=" + url.QueryEscape(forceRegion)
			}
			var res json.RawMessage
			if err := client.post(cmd.Context(), path, nil, &res); err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	forceCmd.Flags().StringVar(&forceRegion, "region", "", "region to scope the chaos motif and event to")
	cmd.AddCommand(forceCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Show recent chaos events",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			var events []motif.WorldEvent
			if err := client.get(cmd.Context(), "/v1/chaos/log", &events); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(events)
			}
			for _, ev := range events {
				fmt.Printf("%s  %s (%s)\n", ev.EventID, ev.Summary, humanize.Time(ev.Timestamp))
			}
			return nil
		},
	})

	return cmd
}

func eventsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the world event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			var events []motif.WorldEvent
			if err := client.get(cmd.Context(), fmt.Sprintf("/v1/events?limit=%d", limit), &events); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(events)
			}
			if len(events) == 0 {
				fmt.Println("No world events.")
				return nil
			}
			for _, ev := range events {
				fmt.Printf("%-14s  %s (%s)\n", ev.Type, ev.Summary, humanize.Time(ev.Timestamp))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of events to show")

	var eventType, region string
	genCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a motif-influenced world event",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			body := map[string]any{}
			if eventType != "" {
				body["type"] = eventType
			}
			if region != "" {
				body["region_id"] = region
			}

			var res struct {
				Event     *motif.WorldEvent `json:"event"`
				EventType string            `json:"event_type"`
				Intensity int               `json:"intensity"`
				IsMajor   bool              `json:"is_major"`
			}
			if err := client.post(cmd.Context(), "/v1/events", body, &res); err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(res)
			}
			marker := ""
			if res.IsMajor {
				marker = " [major]"
			}
			fmt.Printf("%s (intensity %d)%s\n%s\n", res.EventType, res.Intensity, marker, res.Event.Summary)
			return nil
		},
	}
	genCmd.Flags().StringVar(&eventType, "type", "", "event type (rolled when empty)")
	genCmd.Flags().StringVar(&region, "region", "", "region id to draw motifs from")
	cmd.AddCommand(genCmd)

	return cmd
}

func regionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions [id]",
		Short: "List regions, or summarize one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)

			if len(args) == 1 {
				var summary json.RawMessage
				if err := client.get(cmd.Context(), "/v1/regions/"+args[0]+"/summary", &summary); err != nil {
					return err
				}
				return printJSON(summary)
			}

			var regions []string
			if err := client.get(cmd.Context(), "/v1/regions", &regions); err != nil {
				return err
			}
			for _, r := range regions {
				fmt.Println(r)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "register <id>",
		Short: "Register a region so reconciliation keeps it populated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			body := map[string]string{"region_id": args[0]}
			if err := client.post(cmd.Context(), "/v1/regions", body, nil); err != nil {
				return err
			}
			fmt.Printf("Region %s registered\n", args[0])
			return nil
		},
	})

	return cmd
}

func tickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run one lifecycle sweep immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			var res struct {
				Checked     int `json:"checked"`
				Transitions int `json:"transitions"`
			}
			if err := client.post(cmd.Context(), "/v1/lifecycle/tick", nil, &res); err != nil {
				return err
			}
			fmt.Printf("Checked %d motifs, %d transitions\n", res.Checked, res.Transitions)
			return nil
		},
	}
}

func contextCmd() *cobra.Command {
	var region, size string

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show the synthesized narrative context",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(apiAddr)
			path := "/v1/context/enhanced?size=" + size
			if region != "" {
				path += "&region=" + region
			}

			var ec struct {
				HasMotifs  bool   `json:"has_motifs"`
				PromptText string `json:"prompt_text"`
			}
			if err := client.get(cmd.Context(), path, &ec); err != nil {
				return err
			}
			fmt.Println(ec.PromptText)
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "region id to scope the context")
	cmd.Flags().StringVar(&size, "size", "medium", "context size (small|medium|large)")
	return cmd
}
