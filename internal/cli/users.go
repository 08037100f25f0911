package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/gridyield/internal/ir"
	"github.com/roach88/gridyield/internal/store"
)

// NewUserCommand creates the user command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user profiles",
	}
	cmd.AddCommand(newUserAddCommand(rootOpts))
	cmd.AddCommand(newUserListCommand(rootOpts))
	return cmd
}

func newUserAddCommand(rootOpts *RootOptions) *cobra.Command {
	var networker bool

	cmd := &cobra.Command{
		Use:   "add <user-id>",
		Short: "Create a profile with the daily allowance",
		Long: `Create a user profile holding the configured daily allowance.
Running it again on an existing user only updates the networker flag.

Networkers are excluded from friend-message recipients and keep module
setup across visitor clicks.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(env *Env, f *OutputFormatter) error {
				p, err := env.Engine.AddUser(cmd.Context(), args[0], networker)
				if err != nil {
					return err
				}
				return f.Emit(p, func(w io.Writer) {
					fmt.Fprintf(w, "%s votes=%d networker=%t\n", p.UserID, p.AvailableVotes, p.IsNetworker)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&networker, "networker", false, "mark the user as a networker")
	return cmd
}

func newUserListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List user profiles",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(st *store.Store, f *OutputFormatter) error {
				users, err := st.Users(cmd.Context())
				if err != nil {
					return err
				}
				return f.Emit(users, func(w io.Writer) {
					for _, p := range users {
						fmt.Fprintf(w, "%-20s votes=%d networker=%t\n", p.UserID, p.AvailableVotes, p.IsNetworker)
					}
				})
			})
		},
	}
}

// NewFriendCommand creates the friend command group.
func NewFriendCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friend",
		Short: "Manage the friend graph",
	}
	cmd.AddCommand(newFriendAddCommand(rootOpts))
	return cmd
}

func newFriendAddCommand(rootOpts *RootOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "add <from> <to>",
		Short: "Record a directed friendship",
		Long: `Record a friendship from one user to another. Only "friend" rows in
either direction put a user in the friend-message pool.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := ir.FriendshipStatus(status)
			if !ir.ValidFriendshipStatuses[st] {
				return rootOpts.formatter(cmd).Fail(NewExitError(ExitCommandError,
					fmt.Sprintf("invalid status %q: must be pending, friend or blocked", status)))
			}
			return withEnv(cmd, rootOpts, func(env *Env, f *OutputFormatter) error {
				if err := env.Engine.Befriend(cmd.Context(), args[0], args[1], st); err != nil {
					return err
				}
				out := ir.Friendship{From: ir.NormalizeUserID(args[0]), To: ir.NormalizeUserID(args[1]), Status: st}
				return f.Emit(out, func(w io.Writer) {
					fmt.Fprintf(w, "%s -> %s (%s)\n", out.From, out.To, out.Status)
				})
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", string(ir.FriendshipFriend), "friendship status (pending|friend|blocked)")
	return cmd
}

// NewGiveCommand creates the give command.
func NewGiveCommand(rootOpts *RootOptions) *cobra.Command {
	var qty int64

	cmd := &cobra.Command{
		Use:   "give <user-id> <item>",
		Short: "Credit items to a user's inventory",
		Long: `Credit items to a user's inventory. Module items given this way can
then be placed on the user's page.

Example:
  gridyield give alice lemonade_stand
  gridyield give alice sugar --qty 5`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if qty <= 0 {
				return rootOpts.formatter(cmd).Fail(NewExitError(ExitCommandError, fmt.Sprintf("qty must be positive, got %d", qty)))
			}
			return withEnv(cmd, rootOpts, func(env *Env, f *OutputFormatter) error {
				item := ir.ItemQty{Item: args[1], Qty: qty}
				if err := env.Engine.Give(cmd.Context(), args[0], item); err != nil {
					return err
				}
				return f.Emit(item, func(w io.Writer) {
					fmt.Fprintf(w, "gave %d %s to %s\n", item.Qty, item.Item, ir.NormalizeUserID(args[0]))
				})
			})
		},
	}
	cmd.Flags().Int64VarP(&qty, "qty", "n", 1, "quantity to give")
	return cmd
}

// InventoryView is the output of the inventory command.
type InventoryView struct {
	User  string       `json:"user"`
	Votes int64        `json:"votes"`
	Items []ir.ItemQty `json:"items"`
}

// NewInventoryCommand creates the inventory command.
func NewInventoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "inventory <user-id>",
		Short:         "Show a user's items and remaining votes",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(st *store.Store, f *OutputFormatter) error {
				user := ir.NormalizeUserID(args[0])
				p, err := st.Profile(cmd.Context(), user)
				if err != nil {
					return fmt.Errorf("profile %s: %w", user, err)
				}
				items, err := st.Inventory(cmd.Context(), user)
				if err != nil {
					return err
				}
				view := InventoryView{User: user, Votes: p.AvailableVotes, Items: items}
				return f.Emit(view, func(w io.Writer) {
					fmt.Fprintf(w, "%s: %d vote(s)\n", view.User, view.Votes)
					for _, it := range view.Items {
						fmt.Fprintf(w, "  %-20s %d\n", it.Item, it.Qty)
					}
				})
			})
		},
	}
}

// NewMessagesCommand creates the messages command.
func NewMessagesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "messages [user-id]",
		Short:         "List delivered friend messages",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			recipient := ""
			if len(args) > 0 {
				recipient = ir.NormalizeUserID(args[0])
			}
			return withStore(cmd, rootOpts, func(st *store.Store, f *OutputFormatter) error {
				msgs, err := st.Messages(cmd.Context(), recipient)
				if err != nil {
					return err
				}
				return f.Emit(msgs, func(w io.Writer) {
					for _, m := range msgs {
						fmt.Fprintf(w, "%s %s -> %s: %s\n", m.SentAt.Format("2006-01-02 15:04:05"), m.Sender, m.Recipient, m.Template)
					}
				})
			})
		},
	}
}

// NewRefreshCommand creates the refresh command.
func NewRefreshCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Restore every regular user's daily allowance",
		Long: `Reset available votes to the configured daily value for every user
who is not a networker. The serve command runs this on a schedule.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(env *Env, f *OutputFormatter) error {
				n, err := env.Engine.RefreshAllowances(cmd.Context())
				if err != nil {
					return err
				}
				out := map[string]int64{"profiles": n, "votes": env.Config.Economy.DailyVotes}
				return f.Emit(out, func(w io.Writer) {
					fmt.Fprintf(w, "refreshed %d profile(s) to %d vote(s)\n", n, env.Config.Economy.DailyVotes)
				})
			})
		},
	}
}
