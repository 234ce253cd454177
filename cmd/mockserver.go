package cmd

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/mock"
)

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Run a fake device endpoint for development",
	Long: `Serve an in-process fake of the automation endpoint and companion app.
Useful for developing agents without a device attached:

  iphone mock-server &
  iphone --wda-url http://localhost:8100 --companion-url http://localhost:8080 context`,
	RunE: runMockServer,
}

func init() {
	rootCmd.AddCommand(mockServerCmd)
	mockServerCmd.Flags().String("addr", ":8100", "Listen address for the device endpoint")
	mockServerCmd.Flags().String("companion-addr", ":8080", "Listen address for the companion app")
}

func runMockServer(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	companionAddr, _ := cmd.Flags().GetString("companion-addr")

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	device := &http.Server{Addr: addr, Handler: mock.NewDevice().Router()}
	companion := &http.Server{Addr: companionAddr, Handler: mock.NewCompanion().Router()}

	errc := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		log.Info("mock device endpoint listening", "addr", addr)
		if err := device.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	go func() {
		defer wg.Done()
		log.Info("mock companion listening", "addr", companionAddr)
		if err := companion.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		device.Close()
		companion.Close()
		wg.Wait()
		return err
	case <-cmd.Context().Done():
		device.Close()
		companion.Close()
		wg.Wait()
		return nil
	}
}
