package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jrsteele09/oa-client/api"
	"github.com/jrsteele09/oa-client/request"
	"github.com/spf13/cobra"
)

func loginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <emp-id> <totp-code>",
		Short: "Sign in with an employee id and a one-time code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.api.Auth.LoginTOTP(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s, %s)\n", res.Name, res.EmpID, res.UserRole)
			return nil
		},
	}
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.api.Auth.Logout(cmd.Context())
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the claims of the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := a.sess.Claims(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), claims)
		},
	}
}

func refreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored token for a fresh one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.api.Auth.Refresh(cmd.Context()); err != nil {
				return err
			}
			claims, err := a.sess.Claims(cmd.Context())
			if err != nil {
				return err
			}
			if claims.ExpiresAt != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Token refreshed, expires %s\n", claims.ExpiresAt.Time.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func navigateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <path>",
		Short: "Resolve a view path through the route guard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.router.Push(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, hop := range loc.Redirects {
				fmt.Fprintf(out, "redirected to %s\n", hop)
			}
			fmt.Fprintf(out, "%s\t%s\n", loc.Path, loc.Title)
			return nil
		},
	}
}

func rawCmd(a *app, method string) *cobra.Command {
	var quiet bool
	use := strings.ToLower(method) + " <path>"
	if method == "POST" || method == "PUT" {
		use += " [json-body]"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Send an authenticated %s request and print the response data", method),
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body any
			if len(args) == 2 {
				body = json.RawMessage(args[1])
			}
			var out json.RawMessage
			var opts []request.CallOption
			if quiet {
				opts = append(opts, request.Quiet())
			}
			if err := a.client.Do(cmd.Context(), method, args[0], body, &out, opts...); err != nil {
				return err
			}
			return printRaw(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress the failure notice")
	return cmd
}

func machinesCmd(a *app) *cobra.Command {
	page := api.DefaultPage
	cmd := &cobra.Command{
		Use:   "machines [model]",
		Short: "List machines, or show one by model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				m, err := a.api.Machines.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), m)
			}
			list, err := a.api.Machines.List(cmd.Context(), page)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}
	pageFlags(cmd, &page)
	return cmd
}

func ordersCmd(a *app) *cobra.Command {
	filter := api.OrderFilter{PageParams: api.DefaultPage}
	var stats bool
	cmd := &cobra.Command{
		Use:   "orders [id]",
		Short: "List orders, show one by id, or print the statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switch {
			case stats:
				s, err := a.api.Orders.Statistics(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), s)
			case len(args) == 1:
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("order id %q: %w", args[0], err)
				}
				o, err := a.api.Orders.Get(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), o)
			}
			page, err := a.api.Orders.List(ctx, filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	pageFlags(cmd, &filter.PageParams)
	cmd.Flags().BoolVar(&stats, "stats", false, "print order statistics")
	cmd.Flags().StringVar(&filter.CustomerName, "customer", "", "filter by customer name")
	cmd.Flags().StringVar(&filter.OrderNo, "order-no", "", "filter by order number")
	cmd.Flags().StringVar(&filter.MachineName, "machine", "", "filter by machine name")
	cmd.Flags().StringVar(&filter.Area, "area", "", "filter by area")
	cmd.Flags().StringVar(&filter.OrderStatus, "status", "", "filter by order status")
	cmd.Flags().StringVar(&filter.StartDate, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.EndDate, "to", "", "end date (YYYY-MM-DD)")
	return cmd
}

func punchCmd(a *app) *cobra.Command {
	filter := api.PunchFilter{PageParams: api.DefaultPage}
	cmd := &cobra.Command{
		Use:   "punch",
		Short: "List punch records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.api.Punch.Records(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	pageFlags(cmd, &filter.PageParams)
	cmd.Flags().StringVar(&filter.Name, "name", "", "filter by employee name")
	cmd.Flags().StringVar(&filter.EmpID, "emp-id", "", "filter by employee id")
	cmd.Flags().StringVar(&filter.PunchType, "type", "", "filter by punch type")
	cmd.Flags().StringVar(&filter.StartDate, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.EndDate, "to", "", "end date (YYYY-MM-DD)")
	return cmd
}

func uploadCmd(a *app) *cobra.Command {
	var chunked bool
	var target string
	var chunkSize int64
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file, optionally in chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			name := filepath.Base(args[0])
			var res *api.UploadResult
			if chunked {
				info, err := f.Stat()
				if err != nil {
					return err
				}
				res, err = a.api.Uploads.UploadChunked(cmd.Context(), name, f, info.Size(), chunkSize, target)
				if err != nil {
					return err
				}
			} else {
				res, err = a.api.Uploads.Upload(cmd.Context(), name, f, target)
				if err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&chunked, "chunked", false, "upload in chunks")
	cmd.Flags().Int64Var(&chunkSize, "chunk-size", 0, "chunk size in bytes (defaults to config)")
	cmd.Flags().StringVar(&target, "target", "", "final path on the server")
	return cmd
}

func pageFlags(cmd *cobra.Command, p *api.PageParams) {
	cmd.Flags().IntVar(&p.Page, "page", p.Page, "page number")
	cmd.Flags().IntVar(&p.Size, "size", p.Size, "page size")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printRaw(w io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}
	return printJSON(w, v)
}
