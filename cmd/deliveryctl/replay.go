package main

import (
	"bytes"
	"context"
	"fmt"
	"food_delivery/internal/domain/payment/gateway"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	replayURL         string
	replayCopies      int
	replayConcurrency int
)

var replayCmd = &cobra.Command{
	Use:   "webhook-replay <payload.json>",
	Short: "Deliver one signed gateway webhook many times in parallel",
	Long: `Signs the payload with gateway.webhook_secret and posts it --copies times to
--url, --concurrency at a time. Every delivery of the same event id must be
acknowledged while the payment moves at most once.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayURL, "url", "http://localhost:8080/payment/webhook/pagarme", "webhook endpoint")
	replayCmd.Flags().IntVar(&replayCopies, "copies", 50, "number of deliveries")
	replayCmd.Flags().IntVar(&replayConcurrency, "concurrency", 10, "parallel deliveries")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Gateway.WebhookSecret == "" {
		return fmt.Errorf("gateway.webhook_secret is not configured")
	}
	body, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if _, _, err := gateway.ParseWebhook(body); err != nil {
		return fmt.Errorf("payload is not a gateway event: %w", err)
	}
	signature := gateway.Sign(cfg.Gateway.WebhookSecret, body)

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = replayConcurrency
	client := &http.Client{Transport: t, Timeout: 10 * time.Second}

	var (
		mu       sync.Mutex
		statuses = map[int]int{}
	)
	start := time.Now()
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(replayConcurrency)
	for i := 0; i < replayCopies; i++ {
		g.Go(func() error {
			code, err := deliver(ctx, client, body, signature)
			if err != nil {
				return err
			}
			mu.Lock()
			statuses[code]++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := cmd.OutOrStdout()
	codes := make([]int, 0, len(statuses))
	for code := range statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(out, "HTTP %d: %d\n", code, statuses[code])
	}
	fmt.Fprintf(out, "Elapsed: %s (%.1f req/s)\n", elapsed.Round(time.Millisecond), float64(replayCopies)/elapsed.Seconds())
	if statuses[http.StatusOK] != replayCopies {
		return fmt.Errorf("%d of %d deliveries were not acknowledged", replayCopies-statuses[http.StatusOK], replayCopies)
	}
	return nil
}

func deliver(ctx context.Context, client *http.Client, body []byte, signature string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, replayURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(gateway.SignatureHeader, signature)
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
