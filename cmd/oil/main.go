package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cl "oilrush/internal/cli"
	"oilrush/internal/config"
	"oilrush/internal/economy"
)

func main() {
	_ = config.LoadDotEnv()
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "oil",
		Short:        "Oil Rush CLI client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "game API base URL")

	root.AddCommand(
		newSignupCmd(&apiBase),
		newLoginCmd(&apiBase),
		newLogoutCmd(),
		newDashCmd(&apiBase),
		newResumeCmd(&apiBase),
		newCatalogCmd(&apiBase),
		newWellsCmd(&apiBase),
		newBoostersCmd(&apiBase),
		newCasesCmd(&apiBase),
		newPlanCmd(cfg.CatalogPath),
		newExchangeCmd(&apiBase),
		newHistoryCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

// authed loads the saved session and runs fn with a bounded context. A 401
// from the API drops the stale session.
func authed(cmd *cobra.Command, apiBase *string, fn func(ctx context.Context, client *cl.Client, token string) error) error {
	sess, err := cl.LoadSession()
	if err != nil {
		return fmt.Errorf("login required: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	err = fn(ctx, newClient(apiBase), sess.AccessToken)
	if cl.IsUnauthorized(err) {
		_ = cl.ClearSession()
		printWarn("Session expired. Run `oil login` again.")
	}
	return err
}

func newSignupCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an Oil Rush account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := promptRequired("Email")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			referral, err := promptOptional("Referral code (optional)")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			session, err := newClient(apiBase).Signup(ctx, email, password, referral)
			if err != nil {
				return err
			}
			if strings.TrimSpace(session.AccessToken) == "" {
				printWarn("Signup created. Verify your email, then run `oil login`.")
				return nil
			}
			if err := cl.SaveSession(cl.Session{
				AccessToken:  session.AccessToken,
				RefreshToken: session.RefreshToken,
				Email:        session.User.Email,
				UserID:       session.User.ID,
			}); err != nil {
				return err
			}
			printSuccess("Signup complete. Your first rig money is waiting.")
			return nil
		},
	}
}

func newLoginCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Login to Oil Rush",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := promptRequired("Email")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := newClient(apiBase)
			session, err := client.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{
				AccessToken:  session.AccessToken,
				RefreshToken: session.RefreshToken,
				Email:        session.User.Email,
				UserID:       session.User.ID,
			}); err != nil {
				return err
			}
			printSuccess("Login successful.")
			resumed, err := client.Resume(ctx, session.AccessToken)
			if err != nil {
				return err
			}
			renderResume(resumed)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear local session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Logged out.")
			return nil
		},
	}
}

func newDashCmd(apiBase *string) *cobra.Command {
	var watch bool
	var every time.Duration
	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Show your dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				sess, err := cl.LoadSession()
				if err != nil {
					return fmt.Errorf("login required: %w", err)
				}
				return runWatch(newClient(apiBase), sess.AccessToken, every)
			}
			return authed(cmd, apiBase, func(ctx context.Context, client *cl.Client, token string) error {
				d, err := client.Dashboard(ctx, token)
				if err != nil {
					return err
				}
				fmt.Println(dashboardView(d))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep the dashboard open and refresh it")
	cmd.Flags().DurationVar(&every, "every", 10*time.Second, "refresh interval with --watch")
	return cmd
}

func newResumeCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Collect offline income since your last visit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, client *cl.Client, token string) error {
				out, err := client.Resume(ctx, token)
				if err != nil {
					return err
				}
				renderResume(out)
				return nil
			})
		},
	}
}

func newCatalogCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List wells, boosters and cases for sale",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			cat, err := newClient(apiBase).Catalog(ctx)
			if err != nil {
				return err
			}
			renderCatalog(&cat)
			return nil
		},
	}
}

func newWellsCmd(apiBase *string) *cobra.Command {
	wells := &cobra.Command{
		Use:     "wells",
		Short:   "Buy and upgrade oil wells",
		Aliases: []string{"well"},
	}
	wells.AddCommand(&cobra.Command{
		Use:   "buy TYPE",
		Short: "Buy a new level 1 well",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := economy.WellType(strings.ToLower(strings.TrimSpace(args[0])))
			return authed(cmd, apiBase, func(ctx context.Context, client *cl.Client, token string) error {
				out, err := client.BuyWell(ctx, token, t, uuid.NewString())
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("Bought %s well for %s. Income now %s barrels/day.", out.Well.Type, comma(out.Cost), comma(out.Profile.DailyIncome)))
				return nil
			})
		},
	})
	wells.AddCommand(&cobra.Command{
		Use:   "upgrade WELL_ID",
		Short: "Upgrade a well by one level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, client *cl.Client, token string) error {
				out, err := client.UpgradeWell(ctx, token, strings.TrimSpace(args[0]), uuid.NewString())
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("Well upgraded to level %d for %s.", out.Well.Level, comma(out.Cost)))
				return nil
			})
		},
	})
	return wells
}

func newBoostersCmd(apiBase *string) *cobra.Command {
	boosters := &cobra.Command{
		Use:     "boosters",
		Short:   "Buy or cancel income boosters",
		Aliases: []string{"booster"},
	}
	boosters.AddCommand(&cobra.Command{
		Use:   "buy TYPE",
		Short: "Buy the next booster level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := economy.BoosterType(strings.ToLower(strings.TrimSpace(args[0])))
			return authed(cmd, apiBase, func(ctx context.Context, client *cl.Client, token string) error {
				out, err := client.BuyBooster(ctx, token, t, uuid.NewString())
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("%s is level %d (paid %s). Multiplier x%.3f.", out.Booster.Type, out.Booster.Level, comma(out.Cost), out.Profile.Multiplier))
				return nil
			})
		},
	})
	boosters.AddCommand(&cobra.Command{
		Use:   "cancel TYPE",
		Short: "Drop one booster level for a half refund",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := economy.BoosterType(strings.ToLower(strings.TrimSpace(args[0])))
			ok, err := promptConfirm(fmt.Sprintf("Cancel one level of %s?", t))
			if err != nil || !ok {
				return err
			}
			return authed(cmd, apiBase, func(ctx context.Context, client *cl.Client, token string) error {
				out, err := client.CancelBooster(ctx, token, t, uuid.NewString())
				if err != nil {
					return err
				}
				if out.Deleted {
					printSuccess(fmt.Sprintf("%s removed. Refunded %s.", t, comma(out.Refund)))
					return nil
				}
				printSuccess(fmt.Sprintf("%s is now level %d. Refunded %s.", t, out.Booster.Level, comma(out.Refund)))
				return nil
			})
		},
	})
	return boosters
}

func newCasesCmd(apiBase *string) *cobra.Command {
	cases := &cobra.Command{
		Use:     "cases",
		Short:   "Open loot cases",
		Aliases: []string{"case"},
	}
	cases.AddCommand(&cobra.Command{
		Use:   "open CASE_ID",
		Short: "Pay for a case and reveal the reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID := strings.ToLower(strings.TrimSpace(args[0]))
			return authed(cmd, apiBase, func(ctx context.Context, client *cl.Client, token string) error {
				out, err := client.OpenCase(ctx, token, caseID, uuid.NewString())
				if err != nil {
					return err
				}
				renderCaseOpening(out)
				return nil
			})
		},
	})
	return cases
}

func newPlanCmd(catalogPath string) *cobra.Command {
	return &cobra.Command{
		Use:   "plan TARGET",
		Short: "Find a cheap way to reach TARGET money per day (offline)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			if err != nil {
				return fmt.Errorf("target must be a number")
			}
			cat := economy.DefaultCatalog()
			if catalogPath != "" {
				if cat, err = economy.LoadCatalog(catalogPath); err != nil {
					return err
				}
			}
			plan, err := economy.Plan(cat, target)
			if err != nil {
				return err
			}
			renderPlan(plan)
			return nil
		},
	}
}

func newExchangeCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "exchange AMOUNT FROM TO",
		Short: "Convert between coins, money and barrels",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			if err != nil {
				return fmt.Errorf("amount must be a number")
			}
			from := economy.Currency(strings.ToLower(strings.TrimSpace(args[1])))
			to := economy.Currency(strings.ToLower(strings.TrimSpace(args[2])))
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			q, err := newClient(apiBase).Exchange(ctx, amount, from, to)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s = %s %s\n", strconv.FormatFloat(q.Amount, 'f', -1, 64), q.From, strconv.FormatFloat(q.Result, 'f', 4, 64), q.To)
			return nil
		},
	}
}

func newHistoryCmd(apiBase *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, client *cl.Client, token string) error {
				txs, err := client.Transactions(ctx, token, limit)
				if err != nil {
					return err
				}
				renderTransactions(txs)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of transactions")
	return cmd
}
