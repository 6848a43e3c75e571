package host

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog"

	"aurora/internal/executor"
	"aurora/internal/routines"
	"aurora/internal/value"
)

const (
	// moveSpeed is the player's speed in pixels per second.
	moveSpeed = 120
	// maxFrameDelta clamps a frame's simulated delta, so a hitch or a
	// debugger pause does not flood the heartbeat timer.
	maxFrameDelta = 0.25
	// actorHalf is half the side of an actor's square.
	actorHalf = 6
)

var (
	bgColor     = color.RGBA{R: 16, G: 16, B: 24, A: 255}
	actorColor  = color.RGBA{R: 90, G: 170, B: 90, A: 255}
	playerColor = color.RGBA{R: 220, G: 220, B: 90, A: 255}
	flashColor  = color.RGBA{R: 240, G: 110, B: 110, A: 255}
	zoneColor   = color.RGBA{R: 70, G: 90, B: 150, A: 255}
	zoneLit     = color.RGBA{R: 130, G: 160, B: 240, A: 255}
)

// Options configures the demo loop.
type Options struct {
	Title  string
	Width  int
	Height int
	// Entry is the script run once before the first frame.
	Entry    string
	World    *World
	Executor *executor.Executor
	Logger   zerolog.Logger
	// Player is the entity the arrow keys drive.
	Player value.ObjectID
}

// App is the Ebiten loop around one world: a tick resets the budget,
// applies input, advances the executor, and the draw pass renders
// whatever the scripts did.
type App struct {
	log    zerolog.Logger
	world  *World
	exec   *executor.Executor
	title  string
	width  int
	height int
	entry  string

	player  value.ObjectID
	inside  map[value.ObjectID]bool
	last    time.Time
	started bool
}

func NewApp(opts Options) *App {
	a := &App{
		log:    opts.Logger,
		world:  opts.World,
		exec:   opts.Executor,
		title:  opts.Title,
		width:  opts.Width,
		height: opts.Height,
		entry:  opts.Entry,
		player: opts.Player,
		inside: map[value.ObjectID]bool{},
	}
	if a.title == "" {
		a.title = "Aurora"
	}
	if a.width <= 0 {
		a.width = 640
	}
	if a.height <= 0 {
		a.height = 480
	}
	return a
}

// Run opens the window and blocks until the loop ends.
func (a *App) Run() error {
	ebiten.SetWindowSize(a.width, a.height)
	ebiten.SetWindowTitle(a.title)
	return ebiten.RunGame(a)
}

func (a *App) Update() error {
	now := time.Now()
	var dt float32
	if !a.last.IsZero() {
		dt = float32(now.Sub(a.last).Seconds())
	}
	a.last = now
	if dt > maxFrameDelta {
		dt = maxFrameDelta
	}

	a.exec.ResetInstructionBudget()
	if !a.started {
		a.started = true
		a.start()
	}
	a.handleInput(dt)
	a.world.Tick(dt)
	a.exec.Advance(dt)

	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return nil
}

// start runs the entry script and fires every entity's spawn event,
// in spawn order. Unbound spawns are free no-ops.
func (a *App) start() {
	if a.entry != "" {
		a.exec.RunScript(a.entry, a.player)
	}
	for _, e := range a.world.Entities() {
		a.exec.FireEvent(e.ID, routines.EventSpawn, value.ObjectInvalid)
	}
}

func (a *App) handleInput(dt float32) {
	p := a.world.Entity(a.player)
	if p == nil {
		return
	}
	var dx, dy float32
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		dx--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		dx++
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		dy--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		dy++
	}
	if dx != 0 || dy != 0 {
		p.Pos.X += dx * moveSpeed * dt
		p.Pos.Y += dy * moveSpeed * dt
		p.Pos.X = min(max(p.Pos.X, 0), float32(a.width))
		p.Pos.Y = min(max(p.Pos.Y, 0), float32(a.height))
		a.world.SetFacing(p.ID, float32(math.Atan2(float64(dy), float64(dx))))
		a.checkZones(p)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		// Broadcast a user-defined ping; only bound entities react.
		for _, e := range a.world.Entities() {
			a.exec.SignalUserDefined(e.ID, 1, p.ID)
		}
	}
}

// checkZones fires enter and exit events as the player crosses zone
// bounds, with the player as the triggerer.
func (a *App) checkZones(p *Entity) {
	for _, e := range a.world.Entities() {
		if !e.Zone() {
			continue
		}
		in := e.Contains(p.Pos)
		switch {
		case in && !a.inside[e.ID]:
			a.inside[e.ID] = true
			a.exec.FireEvent(e.ID, routines.EventEnter, p.ID)
		case !in && a.inside[e.ID]:
			delete(a.inside, e.ID)
			a.exec.FireEvent(e.ID, routines.EventExit, p.ID)
		}
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	for _, e := range a.world.Entities() {
		if e.Zone() {
			c := zoneColor
			if a.inside[e.ID] {
				c = zoneLit
			}
			vector.StrokeRect(screen, e.Pos.X, e.Pos.Y, e.W, e.H, 1, c, false)
			continue
		}
		c := actorColor
		if e.Player {
			c = playerColor
		}
		if a.world.Flashing(e.ID) {
			c = flashColor
		}
		vector.DrawFilledRect(screen, e.Pos.X-actorHalf, e.Pos.Y-actorHalf,
			2*actorHalf, 2*actorHalf, c, false)
		nx := e.Pos.X + float32(math.Cos(float64(e.Facing)))*(actorHalf+3)
		ny := e.Pos.Y + float32(math.Sin(float64(e.Facing)))*(actorHalf+3)
		vector.DrawFilledRect(screen, nx-1, ny-1, 3, 3, c, false)
	}

	ebitenutil.DebugPrintAt(screen,
		fmt.Sprintf("t=%.1fs  instr/tick=%d", a.world.Elapsed(), a.exec.GlobalInstructionsThisTick()),
		8, 8)
	lines := a.world.Transcript()
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, 8, a.height-(len(lines)-i)*14-8)
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.width, a.height
}
