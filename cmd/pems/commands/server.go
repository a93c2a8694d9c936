package commands

import (
	"context"
	"errors"
	"time"

	"github.com/lestrrat-go/backoff"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Ewixxx/PEMS/pkg/app"
	"github.com/Ewixxx/PEMS/pkg/mailer"
	"github.com/Ewixxx/PEMS/pkg/telemetry"
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("addr", "a", "0.0.0.0:3000", "Specify the address to which the server binds")
	serverCmd.Flags().StringP("database-url", "d", "", "Connection string for a PostgreSQL instance")
	serverCmd.Flags().Int("client-timeout", 10, "HTTP client timeout in seconds")
	serverCmd.Flags().String("fan-url", "", "The device endpoint for fan commands")
	serverCmd.Flags().String("mist-url", "", "The device endpoint for misting commands")
	serverCmd.Flags().String("camera-url", "", "The camera stream endpoint to proxy")
	serverCmd.Flags().Float64("tank-height", telemetry.DefaultTankHeightCm, "The height of the water tank in cm")
	serverCmd.Flags().Int("rate", 4, "The base API rate permitted per client in req/sec")
	serverCmd.Flags().Int("burst", 8, "The burstable API rate per client in req/sec")
	serverCmd.Flags().Int("expiry", 60, "The interval in seconds with which we sweep the rate limit storage to free resources")
	serverCmd.Flags().String("smtp-host", "", "Hostname of the SMTP server used for alerts")
	serverCmd.Flags().Int("smtp-port", 587, "Port of the SMTP server used for alerts")
	serverCmd.Flags().String("smtp-username", "", "Username for the SMTP server")
	serverCmd.Flags().String("smtp-password", "", "Password for the SMTP server")
	serverCmd.Flags().String("alert-from", "", "From address for alert emails")
	serverCmd.Flags().String("alert-to", "", "Recipient address for alert emails")

	viper.BindPFlag("addr", serverCmd.Flags().Lookup("addr"))
	viper.BindPFlag("database-url", serverCmd.Flags().Lookup("database-url"))
	viper.BindPFlag("client-timeout", serverCmd.Flags().Lookup("client-timeout"))
	viper.BindPFlag("fan-url", serverCmd.Flags().Lookup("fan-url"))
	viper.BindPFlag("mist-url", serverCmd.Flags().Lookup("mist-url"))
	viper.BindPFlag("camera-url", serverCmd.Flags().Lookup("camera-url"))
	viper.BindPFlag("tank-height", serverCmd.Flags().Lookup("tank-height"))
	viper.BindPFlag("rate", serverCmd.Flags().Lookup("rate"))
	viper.BindPFlag("burst", serverCmd.Flags().Lookup("burst"))
	viper.BindPFlag("expiry", serverCmd.Flags().Lookup("expiry"))
	viper.BindPFlag("smtp-host", serverCmd.Flags().Lookup("smtp-host"))
	viper.BindPFlag("smtp-port", serverCmd.Flags().Lookup("smtp-port"))
	viper.BindPFlag("smtp-username", serverCmd.Flags().Lookup("smtp-username"))
	viper.BindPFlag("smtp-password", serverCmd.Flags().Lookup("smtp-password"))
	viper.BindPFlag("alert-from", serverCmd.Flags().Lookup("alert-from"))
	viper.BindPFlag("alert-to", serverCmd.Flags().Lookup("alert-to"))
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the server",
	Long:  `Starts the API server running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := viper.GetString("addr")
		if addr == "" {
			return errors.New("Must provide a bind address")
		}

		databaseURL := viper.GetString("database-url")
		if databaseURL == "" {
			return errors.New("Must provide a database url")
		}

		clientTimeout := viper.GetInt("client-timeout")
		if clientTimeout == 0 {
			return errors.New("Must provide a non-zero client timeout")
		}

		fanURL := viper.GetString("fan-url")
		if fanURL == "" {
			return errors.New("Must provide a fan device url")
		}

		mistURL := viper.GetString("mist-url")
		if mistURL == "" {
			return errors.New("Must provide a misting device url")
		}

		cameraURL := viper.GetString("camera-url")
		if cameraURL == "" {
			return errors.New("Must provide a camera stream url")
		}

		baseRate := viper.GetInt("rate")
		if baseRate == 0 {
			return errors.New("Must specify a non-zero rate")
		}

		expiry := viper.GetInt("expiry")
		if expiry == 0 {
			return errors.New("Must specify a non-zero rate limit expiry")
		}

		verbose := viper.GetBool("verbose")

		e := backoff.ExecuteFunc(func(_ context.Context) error {
			a := app.NewApp(&app.Config{
				Addr:          addr,
				DatabaseURL:   databaseURL,
				ClientTimeout: clientTimeout,
				Verbose:       verbose,
				FanURL:        fanURL,
				MistURL:       mistURL,
				CameraURL:     cameraURL,
				TankHeightCm:  viper.GetFloat64("tank-height"),
				Rate:          baseRate,
				Burst:         viper.GetInt("burst"),
				Expiry:        time.Duration(expiry) * time.Second,
				SMTP: &mailer.Config{
					Host:     viper.GetString("smtp-host"),
					Port:     viper.GetInt("smtp-port"),
					Username: viper.GetString("smtp-username"),
					Password: viper.GetString("smtp-password"),
					From:     viper.GetString("alert-from"),
					To:       viper.GetString("alert-to"),
				},
			})

			return a.Start()
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		policy := backoff.NewExponential()
		return backoff.Retry(ctx, policy, e)
	},
}
