package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpggio/statusboard/internal/domain/project"
	"github.com/rpggio/statusboard/internal/domain/task"
	"github.com/rpggio/statusboard/internal/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print project and task metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		latest, _ := cmd.Flags().GetBool("latest")
		managers, _ := cmd.Flags().GetStringSlice("manager")
		assignees, _ := cmd.Flags().GetStringSlice("assignee")

		a, err := newApp(stderrLog)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		projects := a.projects.List(ctx, project.ListRequest{
			Filter:     project.Filter{Managers: managers},
			LatestOnly: latest,
			Force:      force,
		})
		tasks := a.tasks.List(ctx, task.ListRequest{
			Filter: task.Filter{Assignees: assignees},
			Force:  force,
		})

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderProjects(report.Projects(projects.Records), projects.Source))
		fmt.Fprintln(out, renderTasks(report.Tasks(tasks.Records), tasks.Source))
		return nil
	},
}

func init() {
	summaryCmd.Flags().BoolP("force", "f", false, "Bypass the cache")
	summaryCmd.Flags().BoolP("latest", "l", false, "Count only the most recent month of each project")
	summaryCmd.Flags().StringSliceP("manager", "m", nil, "Filter projects by manager")
	summaryCmd.Flags().StringSliceP("assignee", "a", nil, "Filter tasks by assignee")
}
