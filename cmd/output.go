package cmd

import (
	"fmt"
	"io"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

// renderSyncPlan prints every tag of the plan with its position.
func renderSyncPlan(w io.Writer, plan domain.SyncPlan) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("TAG", "STATUS")
	for _, name := range plan.AllTags {
		table.AddRow(name, colorStatus(plan.Status(name)))
	}
	fmt.Fprintln(w, table)
	fmt.Fprintf(w, "\n%s to push, %s to pull, %d in sync\n",
		color.GreenString("%d", len(plan.ToPush)),
		color.CyanString("%d", len(plan.ToPull)),
		len(plan.InSync))
}

func colorStatus(status domain.TagStatus) string {
	switch status {
	case domain.TagStatusLocalOnly:
		return color.GreenString("local only (push)")
	case domain.TagStatusRemoteOnly:
		return color.CyanString("remote only (pull)")
	case domain.TagStatusInSync:
		return color.HiBlackString("in sync")
	}
	return string(status)
}

func renderReleases(w io.Writer, releases []domain.Release) {
	if len(releases) == 0 {
		fmt.Fprintln(w, "No releases found")
		return
	}
	table := uitable.New()
	table.MaxColWidth = 80
	table.AddRow("TAG", "PUBLISHED", "KIND", "URL")
	for _, rel := range releases {
		kind := "release"
		switch {
		case rel.Draft:
			kind = color.HiBlackString("draft")
		case rel.Prerelease:
			kind = color.YellowString("pre-release")
		}
		published := "-"
		if !rel.PublishedAt.IsZero() {
			published = rel.PublishedAt.Format("2006-01-02")
		}
		table.AddRow(rel.TagName, published, kind, rel.URL)
	}
	fmt.Fprintln(w, table)
}
