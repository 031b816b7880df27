package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"strings"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/font"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/rs/zerolog/log"

	"taskpad/internal/client"
	"taskpad/internal/export"
	"taskpad/internal/logger"
	"taskpad/pkg/task"
)

var (
	apiBase = "http://localhost:8080/"
	theme   *material.Theme
)

var (
	colorMuted     = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	colorPending   = color.NRGBA{R: 0xFF, G: 0xA0, B: 0x00, A: 0xFF}
	colorCompleted = color.NRGBA{R: 0x00, G: 0xC0, B: 0x00, A: 0xFF}
	colorDanger    = color.NRGBA{R: 0xC0, G: 0x30, B: 0x30, A: 0xFF}
)

var priorityColors = map[task.Priority]color.NRGBA{
	task.High:   {R: 0xE0, G: 0x50, B: 0x50, A: 0xFF},
	task.Medium: {R: 0xE0, G: 0xB0, B: 0x30, A: 0xFF},
	task.Low:    {R: 0x50, G: 0xB0, B: 0x60, A: 0xFF},
}

type UI struct {
	window *app.Window
	api    *client.Client
	ctx    context.Context
	latest client.Latest

	mu     sync.Mutex
	view   task.View
	filter task.Filter
	sort   task.Sort
	status string

	// Filter and sort
	filterEnum widget.Enum
	sortEnum   widget.Enum

	// Add / edit form
	titleEditor widget.Editor
	descEditor  widget.Editor
	priority    widget.Enum
	submitBtn   widget.Clickable
	cancelBtn   widget.Clickable
	editingID   string

	// Toolbar
	refreshBtn widget.Clickable
	clearBtn   widget.Clickable

	// Tasks
	taskList  widget.List
	toggleBtn []widget.Clickable
	editBtn   []widget.Clickable
	deleteBtn []widget.Clickable
	deletes   client.DeleteGuard
}

func main() {
	if base := os.Getenv("API_BASE"); base != "" {
		apiBase = base
	}
	if err := logger.Init("info", "console", os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("ui: logger")
	}

	api, err := client.New(apiBase)
	if err != nil {
		log.Fatal().Err(err).Msg("ui: client")
	}

	theme = material.NewTheme()
	theme.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	theme.Palette.Bg = color.NRGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xFF}
	theme.Palette.Fg = color.NRGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	theme.Palette.ContrastBg = color.NRGBA{R: 0x30, G: 0x60, B: 0xA0, A: 0xFF}
	theme.Palette.ContrastFg = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	ctx, cancel := context.WithCancel(context.Background())
	ui := &UI{
		window: new(app.Window),
		api:    api,
		ctx:    ctx,
		filter: task.FilterAll,
		sort:   task.SortCreated,
	}
	ui.taskList.Axis = layout.Vertical
	ui.titleEditor.SingleLine = true
	ui.filterEnum.Value = string(ui.filter)
	ui.sortEnum.Value = string(ui.sort)
	ui.priority.Value = string(task.DefaultPriority)

	go ui.pollData(ctx)

	go func() {
		ui.window.Option(app.Title("Task Manager"))
		ui.window.Option(app.Size(unit.Dp(900), unit.Dp(800)))
		err := ui.run(ui.window)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("ui: window")
		}
		os.Exit(0)
	}()
	app.Main()
}

func (ui *UI) run(w *app.Window) error {
	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			ui.handleClicks(gtx)
			ui.layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func (ui *UI) handleClicks(gtx layout.Context) {
	filterChanged := ui.filterEnum.Update(gtx)
	sortChanged := ui.sortEnum.Update(gtx)
	if filterChanged || sortChanged {
		ui.mu.Lock()
		ui.filter = task.ParseFilter(ui.filterEnum.Value)
		ui.sort = task.ParseSort(ui.sortEnum.Value)
		ui.mu.Unlock()
		go ui.fetchTasks()
	}
	if ui.refreshBtn.Clicked(gtx) {
		go ui.fetchTasks()
	}
	if ui.clearBtn.Clicked(gtx) {
		go ui.clearTasks()
	}
	if ui.cancelBtn.Clicked(gtx) {
		ui.resetForm()
	}
	if ui.submitBtn.Clicked(gtx) {
		req := client.ActionRequest{
			Action:      string(task.ActionAdd),
			Title:       ui.titleEditor.Text(),
			Description: ui.descEditor.Text(),
			Priority:    ui.priority.Value,
		}
		if ui.editingID != "" {
			req.Action = string(task.ActionEdit)
			req.TaskID = ui.editingID
		}
		if strings.TrimSpace(req.Title) != "" {
			go ui.apply(req)
			ui.resetForm()
		}
	}

	ui.mu.Lock()
	tasks := ui.view.Tasks
	ui.mu.Unlock()
	for i := range tasks {
		if i >= len(ui.toggleBtn) {
			break
		}
		t := tasks[i]
		if ui.toggleBtn[i].Clicked(gtx) {
			ui.deletes.Disarm()
			go ui.apply(client.ActionRequest{Action: string(task.ActionToggle), TaskID: t.ID})
		}
		if ui.deleteBtn[i].Clicked(gtx) && ui.deletes.Press(t.ID) {
			go ui.apply(client.ActionRequest{Action: string(task.ActionDelete), TaskID: t.ID})
		}
		if ui.editBtn[i].Clicked(gtx) {
			ui.deletes.Disarm()
			ui.editingID = t.ID
			ui.titleEditor.SetText(t.Title)
			ui.descEditor.SetText(t.Description)
			ui.priority.Value = string(t.Priority)
		}
	}
}

func (ui *UI) resetForm() {
	ui.editingID = ""
	ui.titleEditor.SetText("")
	ui.descEditor.SetText("")
	ui.priority.Value = string(task.DefaultPriority)
}

func (ui *UI) layout(gtx layout.Context) layout.Dimensions {
	ui.mu.Lock()
	v, status := ui.view, ui.status
	ui.mu.Unlock()

	return layout.Inset{Top: unit.Dp(16), Right: unit.Dp(16), Bottom: unit.Dp(16), Left: unit.Dp(16)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return ui.layoutHeader(gtx, v.Counts)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
			layout.Rigid(ui.layoutForm),
			layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
			layout.Rigid(ui.layoutFilters),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return ui.layoutTasks(gtx, v)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				label := material.Caption(theme, status)
				label.Color = colorMuted
				return label.Layout(gtx)
			}),
		)
	})
}

func (ui *UI) layoutHeader(gtx layout.Context, c task.Counts) layout.Dimensions {
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return material.H5(theme, "Task Manager").Layout(gtx)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.Body1(theme, fmt.Sprintf("Total Tasks: %d   Pending: %d   Completed: %d", c.Total, c.Pending, c.Completed)).Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(12)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.Button(theme, &ui.refreshBtn, "Refresh").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			btn := material.Button(theme, &ui.clearBtn, "Clear All")
			btn.Background = colorDanger
			return btn.Layout(gtx)
		}),
	)
}

func (ui *UI) layoutForm(gtx layout.Context) layout.Dimensions {
	heading, submit := "Add New Task", "Add Task"
	if ui.editingID != "" {
		heading, submit = "Edit Task", "Save Changes"
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.H6(theme, heading).Layout(gtx)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.Editor(theme, &ui.titleEditor, "Task title...").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(4)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.Editor(theme, &ui.descEditor, "Description").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(4)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(material.Body2(theme, "Priority:").Layout),
				layout.Rigid(material.RadioButton(theme, &ui.priority, string(task.Low), task.Low.Label()).Layout),
				layout.Rigid(material.RadioButton(theme, &ui.priority, string(task.Medium), task.Medium.Label()).Layout),
				layout.Rigid(material.RadioButton(theme, &ui.priority, string(task.High), task.High.Label()).Layout),
				layout.Flexed(1, layout.Spacer{}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					if ui.editingID == "" {
						return layout.Dimensions{}
					}
					btn := material.Button(theme, &ui.cancelBtn, "Cancel")
					btn.Background = colorMuted
					return btn.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(material.Button(theme, &ui.submitBtn, submit).Layout),
			)
		}),
	)
}

func (ui *UI) layoutFilters(gtx layout.Context) layout.Dimensions {
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(material.Body2(theme, "Filter:").Layout),
		layout.Rigid(material.RadioButton(theme, &ui.filterEnum, string(task.FilterAll), "All Tasks").Layout),
		layout.Rigid(material.RadioButton(theme, &ui.filterEnum, string(task.FilterPending), "Pending").Layout),
		layout.Rigid(material.RadioButton(theme, &ui.filterEnum, string(task.FilterCompleted), "Completed").Layout),
		layout.Rigid(layout.Spacer{Width: unit.Dp(24)}.Layout),
		layout.Rigid(material.Body2(theme, "Sort by:").Layout),
		layout.Rigid(material.RadioButton(theme, &ui.sortEnum, string(task.SortCreated), "Date Created").Layout),
		layout.Rigid(material.RadioButton(theme, &ui.sortEnum, string(task.SortPriority), "Priority").Layout),
		layout.Rigid(material.RadioButton(theme, &ui.sortEnum, string(task.SortTitle), "Title").Layout),
	)
}

func (ui *UI) layoutTasks(gtx layout.Context, v task.View) layout.Dimensions {
	// Ensure button slices match data
	for len(ui.toggleBtn) < len(v.Tasks) {
		ui.toggleBtn = append(ui.toggleBtn, widget.Clickable{})
		ui.editBtn = append(ui.editBtn, widget.Clickable{})
		ui.deleteBtn = append(ui.deleteBtn, widget.Clickable{})
	}

	if len(v.Tasks) == 0 {
		label := material.Body1(theme, v.Filter.EmptyMessage())
		label.Color = colorMuted
		return label.Layout(gtx)
	}

	return material.List(theme, &ui.taskList).Layout(gtx, len(v.Tasks), func(gtx layout.Context, i int) layout.Dimensions {
		t := v.Tasks[i]
		statusColor, toggle := colorPending, "Mark Complete"
		if t.Completed {
			statusColor, toggle = colorCompleted, "Mark Pending"
		}
		return layout.Inset{Bottom: unit.Dp(10)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
						layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
							label := material.Body1(theme, t.Title)
							label.Font.Weight = font.Bold
							if t.Completed {
								label.Color = colorMuted
							}
							return label.Layout(gtx)
						}),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Caption(theme, t.Priority.Label())
							label.Color = priorityColors[t.Priority]
							return label.Layout(gtx)
						}),
					)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					if t.Description == "" {
						return layout.Dimensions{}
					}
					return material.Body2(theme, t.Description).Layout(gtx)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					status := "Pending"
					if t.Completed {
						status = "Completed"
					}
					label := material.Caption(theme, fmt.Sprintf("Created: %s   %s", t.CreatedAt.Local().Format(export.TimeLayout), status))
					label.Color = statusColor
					return label.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Height: unit.Dp(4)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{}.Layout(gtx,
						layout.Rigid(material.Button(theme, &ui.toggleBtn[i], toggle).Layout),
						layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
						layout.Rigid(material.Button(theme, &ui.editBtn[i], "Edit").Layout),
						layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := "Delete"
							if ui.deletes.Armed(t.ID) {
								label = "Confirm Delete"
							}
							btn := material.Button(theme, &ui.deleteBtn[i], label)
							btn.Background = colorDanger
							return btn.Layout(gtx)
						}),
					)
				}),
			)
		})
	})
}

// Data fetching

func (ui *UI) pollData(ctx context.Context) {
	ui.fetchTasks()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ui.fetchTasks()
		}
	}
}

func (ui *UI) query() (task.Filter, task.Sort) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.filter, ui.sort
}

// update shows the result of fetch seq unless a later fetch already landed.
func (ui *UI) update(seq uint64, v task.View, err error) {
	ui.mu.Lock()
	switch {
	case err != nil:
		ui.status = "error: " + err.Error()
	case !ui.latest.Accept(seq):
		ui.mu.Unlock()
		return
	default:
		ui.view = v
		ui.status = "updated " + time.Now().Format("15:04:05")
	}
	ui.mu.Unlock()
	ui.window.Invalidate()
}

func (ui *UI) fetchTasks() {
	seq := ui.latest.Begin()
	f, s := ui.query()
	v, err := ui.api.List(ui.ctx, f, s)
	if err != nil {
		log.Error().Err(err).Msg("ui: fetch tasks")
	}
	ui.update(seq, v, err)
}

func (ui *UI) apply(req client.ActionRequest) {
	seq := ui.latest.Begin()
	f, s := ui.query()
	v, err := ui.api.Act(ui.ctx, req, f, s)
	if err != nil {
		log.Error().Err(err).Str("action", req.Action).Msg("ui: task action")
	}
	ui.update(seq, v, err)
}

func (ui *UI) clearTasks() {
	if err := ui.api.Reset(ui.ctx); err != nil {
		log.Error().Err(err).Msg("ui: clear tasks")
		ui.update(0, task.View{}, err)
		return
	}
	ui.fetchTasks()
}
