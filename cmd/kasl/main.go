// Command kasl is the personal work-activity tracker: a daemon that
// infers workdays and breaks from input-device activity, plus the CLI
// surface to control and report on it.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/kasl-dev/kasl/internal/config"
	"github.com/kasl-dev/kasl/internal/daemon"
	"github.com/kasl-dev/kasl/internal/db"
	"github.com/kasl-dev/kasl/internal/external"
	"github.com/kasl-dev/kasl/internal/facade"
	"github.com/kasl-dev/kasl/internal/kerrors"
	"github.com/kasl-dev/kasl/internal/logging"
	"github.com/kasl-dev/kasl/internal/present"
)

func main() {
	app := BuildApp(Deps{OpenEnv: openEnv})
	err := app.Run(os.Args)
	os.Exit(kerrors.ExitCode(err))
}

// env bundles the facade and the store backing a single CLI invocation,
// opened fresh per command so the database is never held open longer
// than the command takes to run.
type env struct {
	facade  *facade.Facade
	store   *db.Store
	closeFn func() error
}

func (e *env) close() {
	if e.closeFn != nil {
		e.closeFn()
	}
}

// Deps lets tests substitute a fake environment in place of the real
// config file, database, and PID file under the user's data directory.
type Deps struct {
	OpenEnv func(foreground bool) (*env, error)
}

func (d Deps) openEnv(foreground bool) (*env, error) {
	if d.OpenEnv != nil {
		return d.OpenEnv(foreground)
	}
	return openEnv(foreground)
}

// BuildApp wires the urfave/cli command tree to the facade through deps,
// so the command-dispatch logic can be exercised without touching the
// real filesystem.
func BuildApp(deps Deps) *cli.App {
	return &cli.App{
		Name:  "kasl",
		Usage: "personal work-activity tracker",
		Commands: []*cli.Command{
			watchCommand(deps),
			endCommand(deps),
			reportCommand(deps),
			adjustCommand(deps),
			pausesCommand(deps),
			sumCommand(deps),
			taskCommand(deps),
			tagCommand(deps),
			templateCommand(deps),
		},
	}
}

func openEnv(foreground bool) (*env, error) {
	cfgPath, err := config.DefaultConfigPath()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrConfigInvalid, err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logPath, err := config.DefaultLogPath()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrConfigInvalid, err)
	}
	var logWriter *os.File
	if foreground {
		logWriter, err = os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("%w: open log file: %v", kerrors.ErrStorageError, err)
		}
	}
	logger := logging.New(logging.Options{Component: "kasl", Writer: logWriter})

	dbPath, err := config.DefaultDBPath()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrConfigInvalid, err)
	}
	store, err := db.New(dbPath)
	if err != nil {
		return nil, err
	}

	pidPath, err := config.DefaultPIDPath()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: %v", kerrors.ErrConfigInvalid, err)
	}
	supervisor := daemon.NewSupervisor(pidPath, logPath, "--foreground")

	f := facade.New(store, cfg, logger, supervisor, external.NoRestDays{}, external.DiscardSink{})
	return &env{facade: f, store: store, closeFn: store.Close}, nil
}

func watchCommand(deps Deps) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "start the daemon, stop it, or run it in the foreground",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "foreground"},
			&cli.BoolFlag{Name: "stop"},
		},
		Action: func(c *cli.Context) error {
			foreground := c.Bool("foreground")
			e, err := deps.openEnv(foreground)
			if err != nil {
				return err
			}
			defer e.close()

			return e.facade.Watch(c.Context, facade.WatchOptions{
				Foreground: foreground,
				Stop:       c.Bool("stop"),
			})
		},
	}
}

func endCommand(deps Deps) *cli.Command {
	return &cli.Command{
		Name:  "end",
		Usage: "finalize today's workday immediately",
		Action: func(c *cli.Context) error {
			e, err := deps.openEnv(false)
			if err != nil {
				return err
			}
			defer e.close()
			return e.facade.End()
		},
	}
}

func reportCommand(deps Deps) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "print a daily or monthly report",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "last"},
			&cli.BoolFlag{Name: "month"},
			&cli.StringFlag{Name: "date"},
			&cli.BoolFlag{Name: "pretty"},
		},
		Action: func(c *cli.Context) error {
			e, err := deps.openEnv(false)
			if err != nil {
				return err
			}
			defer e.close()

			result, err := e.facade.Report(c.Context, facade.ReportOptions{
				Last:  c.Bool("last"),
				Month: c.Bool("month"),
				Date:  c.String("date"),
			})
			if err != nil {
				return err
			}
			if c.Bool("pretty") {
				if result.Monthly != nil {
					fmt.Fprint(c.App.Writer, present.Monthly(result.Monthly))
					return nil
				}
				fmt.Fprint(c.App.Writer, present.Daily(result.Daily))
				return nil
			}
			return printJSON(c.App.Writer, result)
		},
	}
}

func adjustCommand(deps Deps) *cli.Command {
	return &cli.Command{
		Name:  "adjust",
		Usage: "apply a manual trim or inserted-pause adjustment",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Required: true},
			&cli.IntFlag{Name: "minutes", Required: true},
			&cli.StringFlag{Name: "date"},
			&cli.BoolFlag{Name: "force"},
		},
		Action: func(c *cli.Context) error {
			e, err := deps.openEnv(false)
			if err != nil {
				return err
			}
			defer e.close()

			return e.facade.Adjust(facade.AdjustOptions{
				Mode:    c.String("mode"),
				Minutes: c.Int("minutes"),
				Date:    c.String("date"),
				Force:   c.Bool("force"),
			})
		},
	}
}

func pausesCommand(deps Deps) *cli.Command {
	return &cli.Command{
		Name:  "pauses",
		Usage: "list recorded pauses for a date",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date"},
			&cli.IntFlag{Name: "min-duration"},
			&cli.BoolFlag{Name: "pretty"},
		},
		Action: func(c *cli.Context) error {
			e, err := deps.openEnv(false)
			if err != nil {
				return err
			}
			defer e.close()

			pauses, err := e.facade.Pauses(facade.PausesOptions{
				Date:        c.String("date"),
				MinDuration: c.Int("min-duration"),
			})
			if err != nil {
				return err
			}
			if c.Bool("pretty") {
				fmt.Fprint(c.App.Writer, present.Pauses(pauses, time.Now()))
				return nil
			}
			return printJSON(c.App.Writer, pauses)
		},
	}
}

func sumCommand(deps Deps) *cli.Command {
	return &cli.Command{
		Name:  "sum",
		Usage: "print the current month's aggregate, optionally submitting it",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "send"},
			&cli.BoolFlag{Name: "force"},
			&cli.BoolFlag{Name: "pretty"},
		},
		Action: func(c *cli.Context) error {
			e, err := deps.openEnv(false)
			if err != nil {
				return err
			}
			defer e.close()

			monthly, err := e.facade.Sum(c.Context, facade.SumOptions{
				Send:  c.Bool("send"),
				Force: c.Bool("force"),
			})
			if err != nil {
				return err
			}
			if c.Bool("pretty") {
				fmt.Fprint(c.App.Writer, present.Monthly(monthly))
				return nil
			}
			return printJSON(c.App.Writer, monthly)
		},
	}
}

// taskCommand groups the thin task CRUD wrappers that sit directly on
// top of internal/db rather than going through the facade: tasks are
// auxiliary annotations the report reads, not part of the workday/pause
// state machine the facade owns.
func taskCommand(deps Deps) *cli.Command {
	return &cli.Command{
		Name:  "task",
		Usage: "record or list the day's task annotations",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "record a task, generating an external id if none is given",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "comment"},
					&cli.IntFlag{Name: "completeness"},
					&cli.StringFlag{Name: "task-id"},
				},
				Action: func(c *cli.Context) error {
					e, err := deps.openEnv(false)
					if err != nil {
						return err
					}
					defer e.close()

					taskID := c.String("task-id")
					if taskID == "" {
						taskID = uuid.NewString()
					}
					var comment *string
					if v := c.String("comment"); v != "" {
						comment = &v
					}
					id, err := e.store.CreateTask(db.Task{
						Timestamp:    time.Now(),
						Name:         c.String("name"),
						Comment:      comment,
						Completeness: c.Int("completeness"),
						TaskID:       &taskID,
					})
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, map[string]any{"id": id, "task_id": taskID})
				},
			},
			{
				Name:  "list",
				Usage: "list tasks recorded for a date",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date"},
				},
				Action: func(c *cli.Context) error {
					e, err := deps.openEnv(false)
					if err != nil {
						return err
					}
					defer e.close()

					date := c.String("date")
					if date == "" {
						date = time.Now().Format("2006-01-02")
					}
					tasks, err := e.store.ListTasksByDate(date)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, tasks)
				},
			},
		},
	}
}

func tagCommand(deps Deps) *cli.Command {
	return &cli.Command{
		Name:  "tag",
		Usage: "manage task tags",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "create a tag",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "color"},
				},
				Action: func(c *cli.Context) error {
					e, err := deps.openEnv(false)
					if err != nil {
						return err
					}
					defer e.close()

					var color *string
					if v := c.String("color"); v != "" {
						color = &v
					}
					id, err := e.store.CreateTag(c.String("name"), color)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, map[string]any{"id": id})
				},
			},
			{
				Name:  "list",
				Usage: "list tags",
				Action: func(c *cli.Context) error {
					e, err := deps.openEnv(false)
					if err != nil {
						return err
					}
					defer e.close()

					tags, err := e.store.ListTags()
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, tags)
				},
			},
		},
	}
}

func templateCommand(deps Deps) *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "manage reusable task skeletons",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "create a template",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "task-name", Required: true},
					&cli.StringFlag{Name: "comment"},
					&cli.IntFlag{Name: "completeness"},
				},
				Action: func(c *cli.Context) error {
					e, err := deps.openEnv(false)
					if err != nil {
						return err
					}
					defer e.close()

					var comment *string
					if v := c.String("comment"); v != "" {
						comment = &v
					}
					id, err := e.store.CreateTemplate(db.Template{
						Name:                c.String("name"),
						TaskName:            c.String("task-name"),
						Comment:             comment,
						DefaultCompleteness: c.Int("completeness"),
					})
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, map[string]any{"id": id})
				},
			},
			{
				Name:  "list",
				Usage: "list templates",
				Action: func(c *cli.Context) error {
					e, err := deps.openEnv(false)
					if err != nil {
						return err
					}
					defer e.close()

					templates, err := e.store.ListTemplates()
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, templates)
				},
			},
		},
	}
}

func printJSON(w interface{ Write([]byte) (int, error) }, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
