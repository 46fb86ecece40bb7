package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opspilot/agui/pkg/agui"
	"github.com/opspilot/agui/pkg/assembler"
	"github.com/opspilot/agui/pkg/config"
	"github.com/opspilot/agui/pkg/history"
	"github.com/opspilot/agui/pkg/logger"
	"github.com/opspilot/agui/pkg/render"
)

var replayCmd = &cobra.Command{
	Use:   "replay <transcript.sse>",
	Short: "Replay a recorded SSE transcript through the assembler",
	Long: `Reads a line-oriented SSE transcript ("data: {...}" records),
feeds every record through the assembler, and prints the assembled
messages. Malformed frames are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().Bool("follow", false, "print each message snapshot as it mutates instead of only the final state")
	viper.BindPFlag("replay.follow", replayCmd.Flags().Lookup("follow"))

	replayCmd.Flags().Bool("strict", false, "treat ordering noise as protocol violations")
	viper.BindPFlag("assembler.strict", replayCmd.Flags().Lookup("strict"))

	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	settings := config.Get()
	log := logger.WithComponent("replay")

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open transcript: %w", err)
	}
	defer file.Close()

	renderer := render.New(settings.Assembler.ShowThinking)
	follow := viper.GetBool("replay.follow")

	opts := []assembler.Option{
		assembler.WithLogger(log),
		assembler.WithStrict(settings.Assembler.Strict),
		assembler.WithMaxMessages(settings.Assembler.MaxMessages),
	}
	if settings.History.Persist {
		sessionID := uuid.NewString()
		path := filepath.Join(settings.History.Directory, sessionID+".json")
		recorder, err := history.NewFileRecorder(path)
		if err != nil {
			return fmt.Errorf("failed to create history recorder: %w", err)
		}
		log.Info("recording settled messages to %s", path)
		opts = append(opts, assembler.WithRecorder(recorder))
	}

	asm := assembler.New(opts...)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var fed, dropped int
	for scanner.Scan() {
		payload, ok := agui.StripDataPrefix(scanner.Text())
		if !ok {
			continue
		}

		snap, err := asm.Feed([]byte(payload))
		fed++
		if err != nil {
			dropped++
			log.Warn("record %d: %v", fed, err)
			continue
		}
		if follow && snap != nil {
			fmt.Fprintln(cmd.OutOrStdout(), renderer.Render(snap))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	if !follow {
		for _, m := range asm.Messages() {
			fmt.Fprintln(cmd.OutOrStdout(), renderer.Render(m))
		}
	}

	log.Info("replayed %d records (%d dropped)", fed, dropped)
	return nil
}
