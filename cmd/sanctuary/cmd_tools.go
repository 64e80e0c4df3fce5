package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sanctuary/internal/assistant"
	"sanctuary/internal/simulator"
	"sanctuary/internal/sphere"
	"sanctuary/internal/weights"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.store.SeedDefaults(ctx)
	if err != nil {
		return err
	}
	total, err := a.store.CountDocuments(ctx)
	if err != nil {
		return err
	}
	logger.Info("Seed finished", zap.Int("inserted", n), zap.Int("total", total))
	fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d documents (%d in store)\n", n, total)
	return nil
}

func runWeightsShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := a.registry.Reload(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd, w)
}

func runWeightsSave(cmd *cobra.Command, args []string) error {
	var patch weights.Weights
	if err := json.UnmarshalFromString(args[0], &patch); err != nil {
		return fmt.Errorf("invalid weights document: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.registry.Reload(ctx); err != nil {
		return err
	}
	if err := a.registry.Save(ctx, patch); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d weight groups via %s\n", len(patch), a.registry.Backend())
	return printJSON(cmd, a.registry.Current())
}

func runSimulate(cmd *cobra.Command, args []string) error {
	code, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), simulator.SimulateCode(filepath.Base(args[0]), string(code)))
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var (
		raw []byte
		err error
	)
	if args[0] == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	if prepare, _ := cmd.Flags().GetBool("prepare"); prepare {
		out, err := assistant.PrepareForLLM(string(raw))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}

	dataType, _ := cmd.Flags().GetString("type")
	res, err := assistant.Analyze(string(raw), dataType)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Summary)
	return nil
}

func runSphere(cmd *cobra.Command, args []string) error {
	data := sphere.DefaultMarketData()
	if path, _ := cmd.Flags().GetString("data"); path != "" {
		var err error
		if data, err = sphere.LoadMarketData(path); err != nil {
			return err
		}
	}

	scene, err := sphere.NewScene(data, 1)
	if err != nil {
		return err
	}
	if id, _ := cmd.Flags().GetString("sector"); id != "" {
		if err := scene.ShowSector(id); err != nil {
			return err
		}
	}

	pick, _ := cmd.Flags().GetString("pick")
	if pick == "" {
		return printJSON(cmd, scene.Snapshot())
	}

	x, y, err := parsePoint(pick)
	if err != nil {
		return err
	}
	hit, ok := scene.PickAt(x, y)
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing under the pointer")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s\n", hit.Kind, hit.ID, hit.Tooltip)
	return nil
}

// parsePoint parses "x,y" in [-1, 1].
func parsePoint(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	if x < -1 || x > 1 || y < -1 || y > 1 {
		return 0, 0, fmt.Errorf("point %q outside [-1, 1]", s)
	}
	return x, y, nil
}
