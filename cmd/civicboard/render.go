package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"civicreport-be/client"
)

func renderIssues(w io.Writer, issues []client.Issue) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintln(w, "No issues yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUPVOTES\tSTATUS\tPRIORITY\tTITLE\tAUTHORITY\tWHERE")
	for _, is := range issues {
		votes := fmt.Sprint(is.Upvotes.Count)
		if is.HasUpvoted {
			votes += "*"
		}
		where := is.Colony
		if is.DistanceKm != nil {
			where = fmt.Sprintf("%s (%.2f km)", is.Colony, *is.DistanceKm)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			is.ID, votes, is.Status, is.Priority, truncate(is.Title, 40), is.ConcernAuthority, where)
	}
	return tw.Flush()
}

func renderProfile(w io.Writer, p *client.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s\n", p.Name)
	fmt.Fprintf(tw, "Email\t%s\n", p.Email)
	fmt.Fprintf(tw, "Phone\t%s\n", p.Phone)
	fmt.Fprintf(tw, "Address\t%s\n", p.Address)
	fmt.Fprintf(tw, "Landmark\t%s\n", p.Landmark)
	fmt.Fprintf(tw, "Upvoted\t%d issues\n", len(p.UpvotedIssues))
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
