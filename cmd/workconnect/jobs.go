package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/workconnect/session/internal/api"
	"github.com/workconnect/session/internal/token"
)

func jobsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Browse, post and apply to jobs",
	}
	cmd.AddCommand(
		jobsListCmd(c),
		jobsShowCmd(c),
		jobsApplyCmd(c),
		jobsCreateCmd(c),
		jobsMineCmd(c),
		jobsApplicantsCmd(c),
		jobsStatusCmd(c),
	)
	return cmd
}

func jobsListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := c.app.API.ListJobs(cmd.Context())
			if err != nil {
				return describe(err)
			}
			printJobs(jobs)
			return nil
		},
	}
}

func jobsShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := c.app.API.GetJob(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			fmt.Printf("%s\n%s | %s\n\n%s\n", job.Title, job.Location, job.Salary, job.Description)
			if job.RequiredSkills != "" {
				fmt.Printf("\nSkills: %s\n", job.RequiredSkills)
			}
			return nil
		},
	}
}

func jobsApplyCmd(c *cli) *cobra.Command {
	var coverLetter string
	cmd := &cobra.Command{
		Use:   "apply <job-id>",
		Short: "Apply to a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.app.API.Apply(cmd.Context(), args[0], coverLetter)
			if err != nil {
				return describe(err)
			}
			fmt.Printf("Application %s submitted (%s).\n", app.ID, app.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&coverLetter, "cover-letter", "", "Cover letter")
	return cmd
}

func jobsCreateCmd(c *cli) *cobra.Command {
	var job api.NewJob
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a job",
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := c.app.API.CreateJob(cmd.Context(), job)
			if err != nil {
				return describe(err)
			}
			fmt.Printf("Job %s posted.\n", created.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&job.Title, "title", "", "Job title")
	f.StringVar(&job.Description, "description", "", "Job description")
	f.StringVar(&job.Location, "location", "", "Job location")
	f.StringVar(&job.Salary, "salary", "", "Salary")
	f.StringVar(&job.RequiredSkills, "skills", "", "Required skills")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func jobsMineCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your applications, or your posted jobs as an employer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if c.app.Session.HasRole(ctx, token.RoleWorker) {
				apps, err := c.app.API.MyApplications(ctx)
				if err != nil {
					return describe(err)
				}
				printApplications(apps)
				return nil
			}
			jobs, err := c.app.API.EmployerJobs(ctx)
			if err != nil {
				return describe(err)
			}
			printJobs(jobs)
			return nil
		},
	}
}

func jobsApplicantsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "applicants <job-id>",
		Short: "List applications to one of your jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apps, err := c.app.API.JobApplications(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			printApplications(apps)
			return nil
		},
	}
}

func jobsStatusCmd(c *cli) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "set-status <application-id> <status>",
		Short: "Move an application to PENDING, VIEWED, ACCEPTED, REJECTED or COMPLETED",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := api.StatusUpdate{Status: api.ApplicationStatus(args[1]), Notes: notes}
			if err := c.app.API.UpdateApplicationStatus(cmd.Context(), args[0], update); err != nil {
				return describe(err)
			}
			fmt.Println("Status updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Notes for the applicant")
	return cmd
}

func printJobs(jobs []api.Job) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLOCATION\tSALARY")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", j.ID, j.Title, j.Location, j.Salary)
	}
	_ = w.Flush()
}

func printApplications(apps []api.Application) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tJOB\tSTATUS\tAPPLIED")
	for _, a := range apps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.JobID, a.Status, a.AppliedAt.Format("2006-01-02"))
	}
	_ = w.Flush()
}
