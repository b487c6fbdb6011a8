package main

import (
	"github.com/spf13/cobra"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/services"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision a new tenant",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		region, _ := cmd.Flags().GetString("region")

		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		svc := services.NewTenantService(e.store, e.resolver, e.logger)
		t, err := svc.ProvisionTenant(cmd.Context(), models.TenantInput{Name: name, Region: region})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), t)
	},
}

func init() {
	tenantCreateCmd.Flags().String("name", "", "tenant display name")
	tenantCreateCmd.Flags().String("region", "", "hosting region")
	_ = tenantCreateCmd.MarkFlagRequired("name")

	tenantCmd.AddCommand(tenantCreateCmd)
}
