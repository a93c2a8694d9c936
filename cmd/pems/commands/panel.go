package commands

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Ewixxx/PEMS/pkg/client"
	"github.com/Ewixxx/PEMS/pkg/logger"
	"github.com/Ewixxx/PEMS/pkg/panel"
)

func init() {
	rootCmd.AddCommand(panelCmd)

	panelCmd.Flags().String("api-url", "http://127.0.0.1:3000", "Base URL at which the API server is reachable")
	panelCmd.Flags().Int("interval", 5, "Poll interval in seconds")
	panelCmd.Flags().Int("client-timeout", 10, "HTTP client timeout in seconds")

	viper.BindPFlag("api-url", panelCmd.Flags().Lookup("api-url"))
	viper.BindPFlag("interval", panelCmd.Flags().Lookup("interval"))
	viper.BindPFlag("client-timeout", panelCmd.Flags().Lookup("client-timeout"))
}

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Start the operator panel process",
	Long: `Starts the operator panel process which polls the API server on a
fixed interval, arbitrates automatic actuator state against operator
overrides, and raises low water level alerts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		apiURL := viper.GetString("api-url")
		if apiURL == "" {
			return errors.New("Must provide an API url")
		}

		interval := viper.GetInt("interval")
		if interval == 0 {
			return errors.New("Must provide a non-zero poll interval")
		}

		clientTimeout := viper.GetInt("client-timeout")
		if clientTimeout == 0 {
			return errors.New("Must provide a non-zero client timeout")
		}

		verbose := viper.GetBool("verbose")

		log := logger.NewLogger()

		quitChan := make(chan struct{})
		errChan := make(chan error)
		var wg sync.WaitGroup

		p := panel.NewPanel(&panel.Config{
			APIURL:    apiURL,
			Client:    client.NewClient(clientTimeout, verbose),
			Clock:     clockwork.NewRealClock(),
			Interval:  time.Duration(interval) * time.Second,
			QuitChan:  quitChan,
			ErrChan:   errChan,
			WaitGroup: &wg,
		}, log)

		stopChan := make(chan os.Signal, 1)
		signal.Notify(stopChan, os.Interrupt)

		wg.Add(1)
		go p.Start()

		select {
		case <-stopChan:
			log.Log("msg", "stopping panel")
			close(quitChan)
			wg.Wait()
		case err := <-errChan:
			return err
		}

		return nil
	},
}
