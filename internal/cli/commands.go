package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joeshaw/aveiro-bus/internal/autocomplete"
	"github.com/joeshaw/aveiro-bus/internal/chat"
	"github.com/joeshaw/aveiro-bus/internal/directions"
	"github.com/joeshaw/aveiro-bus/internal/exporter"
	"github.com/joeshaw/aveiro-bus/internal/gtfs"
	"github.com/joeshaw/aveiro-bus/internal/metrics"
	"github.com/joeshaw/aveiro-bus/internal/models"
	"github.com/joeshaw/aveiro-bus/internal/preferences"
	"github.com/joeshaw/aveiro-bus/internal/storage"
	"github.com/joeshaw/aveiro-bus/internal/store"
)

// directions ORIGIN DESTINATION: print bus itineraries.
func directionsCmd() *cobra.Command {
	var (
		wheelchair bool
		lang       string
		departAt   string
		icsPath    string
		kmlPath    string
	)

	cmd := &cobra.Command{
		Use:   "directions ORIGIN DESTINATION",
		Short: "Find bus itineraries between two places",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			language, err := preferences.NormalizeLanguage(lang)
			if err != nil {
				return err
			}
			q := directions.Query{
				Origin:      args[0],
				Destination: args[1],
				Wheelchair:  wheelchair,
				Language:    language,
			}
			if departAt != "" {
				if q.DepartAt, err = time.Parse(time.RFC3339, departAt); err != nil {
					return fmt.Errorf("--depart: expected an RFC 3339 time: %w", err)
				}
			}

			result, err := directions.NewService(newMapsClient(metrics.Noop)).Search(cmd.Context(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Itineraries) == 0 {
				fmt.Fprintln(out, result.Message)
				return nil
			}
			for i, it := range result.Itineraries {
				fmt.Fprintln(out, renderItinerary(i, it))
			}

			best := result.Itineraries[0]
			if icsPath != "" {
				err := writeFile(icsPath, func(w io.Writer) error {
					return exporter.WriteItineraryICS(w, best, time.Now())
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved calendar to %s\n", icsPath)
			}
			if kmlPath != "" {
				err := writeFile(kmlPath, func(w io.Writer) error {
					return exporter.WriteItineraryKML(w, best)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved map to %s\n", kmlPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&wheelchair, "wheelchair", false, "only wheelchair accessible itineraries")
	cmd.Flags().StringVar(&lang, "lang", models.DefaultLanguage, "language of instructions and messages (pt, en, es)")
	cmd.Flags().StringVar(&departAt, "depart", "", "departure time, RFC 3339 (default now)")
	cmd.Flags().StringVar(&icsPath, "ics", "", "write the first itinerary to this .ics file")
	cmd.Flags().StringVar(&kmlPath, "kml", "", "write the first itinerary to this .kml file")
	return cmd
}

// places INPUT: print autocomplete suggestions.
func placesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "places INPUT",
		Short: "Suggest places matching partial input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := autocomplete.NewService(newMapsClient(metrics.Noop), 0, cfg.Maps.MinChars)
			predictions, err := svc.Suggest(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(predictions) == 0 {
				fmt.Fprintln(out, "No suggestions.")
				return nil
			}
			for _, p := range predictions {
				fmt.Fprintln(out, renderPrediction(p))
			}
			return nil
		},
	}
}

// ask QUESTION: one turn with the assistant, stored under --session.
func askCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask the assistant about the bus service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := chat.NewService(newAssistant(metrics.Noop), db, cfg.Chat.History)
			reply, err := svc.Ask(cmd.Context(), session, args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", chat.FriendlyMessage(err), err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", "cli", "conversation to continue")
	return cmd
}

// lines: list the bus lines of a GTFS feed.
func linesCmd() *cobra.Command {
	var (
		gtfsPath string
		kmlPath  string
	)

	cmd := &cobra.Command{
		Use:   "lines",
		Short: "List bus lines from a GTFS feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if gtfsPath == "" {
				gtfsPath = cfg.GTFS.Path
			}
			network, err := gtfs.ParseFile(gtfsPath)
			if err != nil {
				return err
			}
			dataStore := store.NewStore()
			dataStore.Replace(network)

			lines := exporter.NetworkLines(dataStore)
			out := cmd.OutOrStdout()
			if len(lines) == 0 {
				return errors.New("no bus lines in " + gtfsPath)
			}
			for _, line := range lines {
				fmt.Fprintln(out, renderRoute(line.Route, len(line.Stops)))
			}

			if kmlPath != "" {
				err := writeFile(kmlPath, func(w io.Writer) error {
					return exporter.WriteLinesKML(w, "AveiroBus", lines)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved map to %s\n", kmlPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&gtfsPath, "gtfs", "", "GTFS zip to read (default AVEIROBUS_GTFS_PATH)")
	cmd.Flags().StringVar(&kmlPath, "kml", "", "also write every line to this .kml file")
	return cmd
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
