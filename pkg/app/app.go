package app

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zurustar/blockstep/pkg/announce"
	"github.com/zurustar/blockstep/pkg/cli"
	"github.com/zurustar/blockstep/pkg/commands"
	"github.com/zurustar/blockstep/pkg/console"
	"github.com/zurustar/blockstep/pkg/host"
	"github.com/zurustar/blockstep/pkg/interpreter"
	"github.com/zurustar/blockstep/pkg/logger"
	"github.com/zurustar/blockstep/pkg/programfile"
	"github.com/zurustar/blockstep/pkg/robot"
	"github.com/zurustar/blockstep/pkg/sound"
	"github.com/zurustar/blockstep/pkg/window"
	"github.com/zurustar/blockstep/pkg/world"
	"golang.org/x/text/language"
)

// DefaultProgram はプログラムが指定されない場合に実行する組み込みサンプル
const DefaultProgram = "square"

// ProgramsDir は埋め込みファイルシステム内のサンプルプログラムのディレクトリ
const ProgramsDir = "programs"

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config  *cli.Config
	log     *slog.Logger
	embedFS fs.FS
	out     io.Writer

	file      *programfile.File
	world     *world.World
	session   *host.Session
	announcer *announce.Announcer
	player    *sound.Player
	robot     *robot.Connection
}

// New Applicationを作成
func New(embedFS fs.FS) *Application {
	return &Application{
		embedFS: embedFS,
		out:     os.Stdout,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	app.log.Info("Application started")

	// サンプル一覧の表示
	if app.config.ListPrograms {
		return app.listPrograms()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 3. プログラムの読み込み
	if err := app.loadProgram(); err != nil {
		return fmt.Errorf("failed to load program: %w", err)
	}

	// 4. セッションとコマンドの準備
	if err := app.setup(ctx); err != nil {
		return fmt.Errorf("failed to set up session: %w", err)
	}
	defer app.shutdown()

	// 5. 実行
	switch {
	case app.config.Interactive:
		if err := app.runConsole(ctx); err != nil {
			return fmt.Errorf("console failed: %w", err)
		}
	case app.config.Headless:
		if err := app.runHeadless(ctx); err != nil {
			return fmt.Errorf("program failed: %w", err)
		}
	default:
		if err := app.runWindow(); err != nil {
			return fmt.Errorf("failed to run window: %w", err)
		}
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLoggerWithFile(app.config.LogLevel, app.config.LogFile); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

func (app *Application) library() programfile.Library {
	return programfile.Library{FS: app.embedFS, Dir: ProgramsDir}
}

// listPrograms 組み込みサンプルの一覧を表示
func (app *Application) listPrograms() error {
	names, err := app.library().Names()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(app.out, name)
	}
	return nil
}

// loadProgram プログラムファイルまたは組み込みサンプルを読み込む
func (app *Application) loadProgram() error {
	name := app.config.ProgramPath
	if name == "" {
		name = DefaultProgram
	}

	f, err := app.library().Open(name)
	if err != nil {
		return err
	}
	app.file = f
	app.log.Info("Program loaded", "name", f.Name, "source", name)
	return nil
}

// setup 世界、セッション、コマンドハンドラを準備する
func (app *Application) setup(ctx context.Context) error {
	seq, err := app.file.Sequence()
	if err != nil {
		return err
	}
	start, err := app.file.Character()
	if err != nil {
		return err
	}
	app.world = world.New(start)

	stepTime := app.config.StepTime
	if stepTime == 0 {
		stepTime, err = host.StepTimeForSpeed(app.config.Speed)
		if err != nil {
			return err
		}
	}
	app.session = host.New(seq,
		host.WithLogger(app.log),
		host.WithInterpreterOptions(interpreter.WithStepTime(stepTime)))
	in := app.session.Interpreter()

	// 音声（SoundFontが見つからない場合は無音で続行）
	var observers []commands.Observer
	if !app.config.Headless {
		if player := app.initSound(); player != nil {
			app.player = player
			observers = append(observers, player)
		}
	}
	commands.Register(in, app.world, observers...)

	// 読み上げ（ヘッドレスと対話コンソールのみ）
	if app.config.Headless || app.config.Interactive {
		lang, err := announce.ParseLanguage(app.config.Lang)
		if err != nil {
			app.log.Warn("Unsupported language, using English", "lang", app.config.Lang)
			lang = language.English
		}
		app.announcer, err = announce.New(app.out, lang)
		if err != nil {
			return err
		}
		app.announcer.Register(in, commands.Names())
	}

	// ロボット
	if app.config.Robot == "fake" {
		app.robot = robot.NewConnection(&robot.FakeDriver{}, in)
		if err := app.robot.Connect(ctx); err != nil {
			return err
		}
	}
	return nil
}

// initSound SoundFontを探して音声プレイヤーを作成する
func (app *Application) initSound() *sound.Player {
	programDir := ""
	if app.config.ProgramPath != "" && strings.ContainsAny(app.config.ProgramPath, `/\`) {
		programDir = filepath.Dir(app.config.ProgramPath)
	}

	loc := findSoundFont(app.embedFS, app.config.SoundFont, programDir)
	if loc == nil {
		app.log.Info("No SoundFont found, sound disabled")
		return nil
	}

	sf, err := sound.LoadSoundFont(loc.FileSystem, loc.Path)
	if err != nil {
		app.log.Warn("Failed to load SoundFont, sound disabled", "path", loc.Path, "error", err)
		return nil
	}
	player, err := sound.New(sf, nil, sound.WithLogger(app.log))
	if err != nil {
		app.log.Warn("Failed to start sound, sound disabled", "error", err)
		return nil
	}
	app.log.Info("Sound enabled", "soundfont", loc.Path, "embedded", loc.IsEmbedded)
	return player
}

// runHeadless プログラムを最後まで実行し、最終位置を表示する
func (app *Application) runHeadless(ctx context.Context) error {
	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
	}

	done := make(chan struct{})
	var once sync.Once
	app.session.Subscribe(func(ev host.Event) {
		if ev.State == interpreter.Stopped || ev.State == interpreter.Paused {
			once.Do(func() { close(done) })
		}
	})

	app.log.Info("Headless mode: running program", "name", app.file.Name)
	app.session.Play()

	select {
	case <-done:
	case <-ctx.Done():
		app.log.Info("Timeout reached, stopping", "error", ctx.Err())
		app.session.Stop()
	}
	app.session.Wait()

	app.announcer.Say(app.announcer.Position(app.world.Character()))
	return app.session.Err()
}

// runConsole 対話コンソールを実行
func (app *Application) runConsole(ctx context.Context) error {
	opts := []console.Option{
		console.WithAnnouncer(app.announcer),
		console.WithLibrary(app.library()),
		console.WithName(app.file.Name),
	}
	if app.player != nil {
		opts = append(opts, console.WithMuter(app.player))
	}
	c := console.New(app.session, app.world, app.out, opts...)
	return c.Run(ctx)
}

// runWindow GUIモードでウィンドウを実行
func (app *Application) runWindow() error {
	opts := []window.Option{
		window.WithTitle(app.file.Name),
		window.WithTimeout(app.config.Timeout),
	}
	if app.config.StepTime == 0 {
		opts = append(opts, window.WithSpeed(app.config.Speed))
	} else {
		opts = append(opts, window.WithSpeed(0))
	}
	if app.player != nil {
		opts = append(opts, window.WithMuter(app.player))
	}
	return window.Run(app.session, app.world, opts...)
}

// shutdown 実行中のプログラムとデバイスを止める
func (app *Application) shutdown() {
	if app.session != nil {
		app.session.Close()
	}
	if app.robot != nil {
		if err := app.robot.Disconnect(); err != nil {
			app.log.Warn("Failed to disconnect robot", "error", err)
		}
	}
	if app.player != nil {
		if err := app.player.Close(); err != nil {
			app.log.Warn("Failed to close sound", "error", err)
		}
	}
}
