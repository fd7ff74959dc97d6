package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/limen-app/limen/internal/adapters/storage"
	"github.com/limen-app/limen/internal/adapters/storage/localfile"
	"github.com/limen-app/limen/internal/app/reflections"
	"github.com/limen-app/limen/internal/config"
	"github.com/limen-app/limen/internal/domain"
)

var (
	// reflections command flags
	rfDevice     string
	rfMood       string
	rfLimit      int
	rfOutputJSON bool
	rfYes        bool
)

func init() {
	reflectionsCmd.AddCommand(reflectionsListCmd)
	reflectionsCmd.AddCommand(reflectionsDeleteCmd)
	reflectionsCmd.AddCommand(reflectionsPurgeCmd)

	reflectionsCmd.PersistentFlags().StringVar(&rfDevice, "device", "", "Device identifier (required)")
	_ = reflectionsCmd.MarkPersistentFlagRequired("device")

	reflectionsListCmd.Flags().StringVar(&rfMood, "mood", "", "Only show reflections of this mood")
	reflectionsListCmd.Flags().IntVar(&rfLimit, "limit", 20, "Maximum number of reflections to show")
	reflectionsListCmd.Flags().BoolVar(&rfOutputJSON, "json", false, "Output results as JSON")

	reflectionsPurgeCmd.Flags().BoolVar(&rfYes, "yes", false, "Confirm deleting every reflection of the device")
}

var reflectionsCmd = &cobra.Command{
	Use:   "reflections",
	Short: "Manage reflections saved on a device",
}

var reflectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reflections, newest first",
	Long: `List saved reflections, newest first.

Examples:
  limen reflections list --device laptop
  limen reflections list --device laptop --mood confusion --json`,
	RunE: runReflectionsList,
}

var reflectionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one reflection",
	Args:  cobra.ExactArgs(1),
	RunE:  runReflectionsDelete,
}

var reflectionsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every reflection of the device",
	RunE:  runReflectionsPurge,
}

// deviceService builds a reflections service over device-local storage.
func deviceService() (*reflections.Service, domain.Owner, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, domain.Owner{}, err
	}
	return newDeviceService(cfg), domain.Owner{Device: domain.DeviceID(rfDevice)}, nil
}

func newDeviceService(cfg *config.Config) *reflections.Service {
	return reflections.NewService(storage.NewResolver(localfile.NewResolver(cfg.Storage.LocalDir), nil))
}

func runReflectionsList(cmd *cobra.Command, args []string) error {
	svc, owner, err := deviceService()
	if err != nil {
		return err
	}

	q := reflections.Query{Limit: rfLimit}
	if rfMood != "" {
		m, err := domain.ParseMood(rfMood)
		if err != nil {
			return err
		}
		q.Mood = m
	}

	list, err := svc.List(cmd.Context(), owner, q)
	if err != nil {
		return err
	}

	if rfOutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Println("No reflections saved.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tMOOD\tTEXT")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Mood,
			preview(r.WrittenText, 48),
		)
	}
	return w.Flush()
}

func runReflectionsDelete(cmd *cobra.Command, args []string) error {
	svc, owner, err := deviceService()
	if err != nil {
		return err
	}
	if err := svc.Delete(cmd.Context(), owner, domain.ReflectionID(args[0])); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

func runReflectionsPurge(cmd *cobra.Command, args []string) error {
	if !rfYes {
		return fmt.Errorf("refusing to delete every reflection without --yes")
	}
	svc, owner, err := deviceService()
	if err != nil {
		return err
	}
	if err := svc.DeleteAll(cmd.Context(), owner); err != nil {
		return err
	}
	fmt.Println("All reflections deleted.")
	return nil
}

// preview returns the first line of s, cut to n runes.
func preview(s string, n int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	r := []rune(line)
	if len(r) <= n {
		return line
	}
	return string(r[:n-1]) + "…"
}
