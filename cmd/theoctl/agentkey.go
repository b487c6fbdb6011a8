package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/services"
)

var agentKeyCmd = &cobra.Command{
	Use:   "agent-key",
	Short: "Issue and revoke agent role access keys",
	Long:  `Access keys authenticate agents as an agent role. Commands run in the tenant named by THEO_TENANT_ID.`,
}

var agentKeyIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a new access key for an agent role",
	RunE: func(cmd *cobra.Command, args []string) error {
		roleFlag, _ := cmd.Flags().GetString("role")
		name, _ := cmd.Flags().GetString("name")
		expiresIn, _ := cmd.Flags().GetDuration("expires-in")

		roleID, err := uuid.Parse(roleFlag)
		if err != nil {
			return fmt.Errorf("--role must be an agent role id: %w", err)
		}
		in, err := accessKeyInput(name, expiresIn, time.Now())
		if err != nil {
			return err
		}

		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.requireTenant(cmd.Context()); err != nil {
			return err
		}

		issued, err := agentService(e).IssueAccessKey(cmd.Context(), roleID, in)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), issued.Warning)
		return printJSON(cmd.OutOrStdout(), issued)
	},
}

var agentKeyRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke an access key",
	RunE: func(cmd *cobra.Command, args []string) error {
		idFlag, _ := cmd.Flags().GetString("id")
		id, err := uuid.Parse(idFlag)
		if err != nil {
			return fmt.Errorf("--id must be an access key id: %w", err)
		}

		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.requireTenant(cmd.Context()); err != nil {
			return err
		}

		if err := agentService(e).RevokeAccessKey(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", id)
		return nil
	},
}

func init() {
	agentKeyIssueCmd.Flags().String("role", "", "agent role id")
	agentKeyIssueCmd.Flags().String("name", "", "label for the key")
	agentKeyIssueCmd.Flags().Duration("expires-in", 0, "lifetime of the key, e.g. 720h (0 never expires)")
	_ = agentKeyIssueCmd.MarkFlagRequired("role")

	agentKeyRevokeCmd.Flags().String("id", "", "access key id")
	_ = agentKeyRevokeCmd.MarkFlagRequired("id")

	agentKeyCmd.AddCommand(agentKeyIssueCmd)
	agentKeyCmd.AddCommand(agentKeyRevokeCmd)
}

func agentService(e *env) *services.AgentService {
	return services.NewAgentService(e.store, e.cache, e.resolver, e.cfg.Auth.AgentKeyPrefix, e.cfg.Cache.TTLDuration(), e.logger)
}

func accessKeyInput(name string, expiresIn time.Duration, now time.Time) (models.AccessKeyInput, error) {
	var in models.AccessKeyInput
	if name != "" {
		in.Name = &name
	}
	switch {
	case expiresIn < 0:
		return in, fmt.Errorf("--expires-in must not be negative")
	case expiresIn > 0:
		at := now.Add(expiresIn).UTC()
		in.ExpiresAt = &at
	}
	return in, nil
}
