package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/output"
)

// Commands backed by the companion app rather than the automation endpoint.

var healthCmd = &cobra.Command{
	Use:   "health <steps|heartrate|sleep|workouts|summary>",
	Short: "Read health data from the companion app",
	Args:  cobra.ExactArgs(1),
	RunE:  runHealth,
}

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List contacts",
	RunE:  runContacts,
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "List upcoming calendar events",
	RunE:  runCalendar,
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List recent notifications",
	RunE:  runNotifications,
}

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Show the device's last known location",
	RunE:  runLocation,
}

var shortcutCmd = &cobra.Command{
	Use:   "shortcut",
	Short: "List or run Shortcuts automations",
}

var shortcutListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed shortcuts",
	RunE:  runShortcutList,
}

var shortcutRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a shortcut by name",
	Args:  cobra.ExactArgs(1),
	RunE:  runShortcutRun,
}

var companionCmd = &cobra.Command{
	Use:   "companion <status|ping>",
	Short: "Check the companion app",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompanion,
}

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(contactsCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(locationCmd)
	rootCmd.AddCommand(shortcutCmd)
	rootCmd.AddCommand(companionCmd)
	shortcutCmd.AddCommand(shortcutListCmd)
	shortcutCmd.AddCommand(shortcutRunCmd)

	healthCmd.Flags().Int("days", 7, "How many days back to fetch")
	healthCmd.Flags().Int("limit", 20, "Sample cap for heartrate")
	contactsCmd.Flags().String("search", "", "Filter by name substring")
	calendarCmd.Flags().Int("days", 7, "How many days ahead to fetch")
	calendarCmd.Flags().Bool("reminders", false, "List reminders instead of events")
}

func runHealth(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	c := p.Companion()
	days, _ := cmd.Flags().GetInt("days")
	limit, _ := cmd.Flags().GetInt("limit")

	var v interface{}
	switch args[0] {
	case "steps":
		v, err = c.Steps(cmd.Context(), days)
	case "heartrate":
		v, err = c.HeartRate(cmd.Context(), limit)
	case "sleep":
		v, err = c.Sleep(cmd.Context(), days)
	case "workouts":
		v, err = c.Workouts(cmd.Context(), days)
	case "summary":
		v, err = c.HealthSummary(cmd.Context())
	default:
		return fmt.Errorf("unknown health metric %q (use steps, heartrate, sleep, workouts, or summary)", args[0])
	}
	if err != nil {
		return err
	}
	return output.Print(v)
}

func runContacts(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	search, _ := cmd.Flags().GetString("search")
	contacts, err := p.Companion().Contacts(cmd.Context(), search)
	if err != nil {
		return err
	}
	return output.Print(contacts)
}

func runCalendar(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	if reminders, _ := cmd.Flags().GetBool("reminders"); reminders {
		rs, err := p.Companion().Reminders(cmd.Context())
		if err != nil {
			return err
		}
		return output.Print(rs)
	}
	days, _ := cmd.Flags().GetInt("days")
	events, err := p.Companion().CalendarEvents(cmd.Context(), days)
	if err != nil {
		return err
	}
	return output.Print(events)
}

func runNotifications(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	ns, err := p.Companion().Notifications(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(ns)
}

func runLocation(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	loc, err := p.Companion().Location(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(loc)
}

func runShortcutList(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	shortcuts, err := p.Companion().Shortcuts(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(shortcuts)
}

func runShortcutRun(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	res, err := p.Companion().RunShortcut(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return output.Print(res)
}

func runCompanion(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	switch args[0] {
	case "status":
		st, err := p.Companion().Status(cmd.Context())
		if err != nil {
			return err
		}
		return output.Print(st)
	case "ping":
		ping, err := p.Companion().PingCheck(cmd.Context())
		if err != nil {
			return err
		}
		return output.Print(ping)
	default:
		return fmt.Errorf("unknown companion check %q (use status or ping)", args[0])
	}
}
