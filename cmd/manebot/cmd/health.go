package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	coregrpc "github.com/manebot/manebot/pkg/core/grpc"
)

var (
	healthTarget  string
	healthService string
	healthTimeout time.Duration
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Queries the gRPC health endpoint of a running bot",
	Long: `Queries the standard gRPC health service of a running bot. Without
--target the address comes from the [grpc] configuration section.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().StringVar(&healthTarget, "target", "", "address of the health endpoint")
	healthCmd.Flags().StringVar(&healthService, "service", "", "service name (default: overall status)")
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 5*time.Second, "request timeout")
}

func runHealth(cmd *cobra.Command, args []string) error {
	target := healthTarget
	if target == "" {
		cfg, err := loadConfig()
		if err != nil {
			printError("loading config", err)
			return err
		}
		target = fmt.Sprintf("localhost:%d", cfg.GRPC.Port)
	}

	status, err := coregrpc.CheckHealth(context.Background(), target, healthService, healthTimeout)
	if err != nil {
		printError("health check", err)
		return err
	}

	style, ok := statusStyles[status]
	if !ok {
		style = ValueStyle
	}
	fmt.Fprintln(cmd.OutOrStdout(), LabelStyle.Render(target+" ")+style.Render(status))
	if status != "SERVING" {
		return fmt.Errorf("service %q is %s", healthService, status)
	}
	return nil
}
