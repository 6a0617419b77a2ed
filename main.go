package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/filedock/filedock/config"
	"github.com/filedock/filedock/database"
	"github.com/filedock/filedock/database/model"
	"github.com/filedock/filedock/logger"
	"github.com/filedock/filedock/web"
	"github.com/filedock/filedock/web/service"

	"github.com/goccy/go-json"
	"github.com/op/go-logging"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func initLogger() {
	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}
}

// openDB loads the configuration and opens its database.
func openDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.InitDB(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func startServer(cfg *config.Config, db *gorm.DB) (*web.Server, error) {
	server, err := web.NewServer(cfg, db)
	if err != nil {
		return nil, err
	}
	if err := server.Start(); err != nil {
		return nil, err
	}
	return server, nil
}

func runWebServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	initLogger()
	defer logger.CloseLogger()
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal(err)
	}
	if cfg.SecretGenerated() {
		logger.Warning("no session secret configured, sessions will not survive a restart")
	}

	db, err := database.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := database.CloseDB(db); err != nil {
			logger.Warning("close database:", err)
		}
	}()

	server, err := startServer(cfg, db)
	if err != nil {
		logger.Error("start server:", err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for sig := range sigCh {
		if err := server.Stop(); err != nil {
			logger.Warning("stop server err:", err)
		}
		if sig != syscall.SIGHUP {
			return
		}

		// reload the configuration and restart on SIGHUP
		next, err := config.Load()
		if err != nil {
			logger.Error("reload config:", err)
			return
		}
		next.KeepGeneratedSecret(cfg)
		if next.DBPath != cfg.DBPath {
			logger.Warning("dbPath changes need a full restart, keeping", cfg.DBPath)
			next.DBPath = cfg.DBPath
		}
		cfg = next
		server, err = startServer(cfg, db)
		if err != nil {
			logger.Error("restart server:", err)
			return
		}
	}
}

func migrateDb() {
	_, db, err := openDB()
	if err != nil {
		log.Fatal(err)
	}
	defer database.CloseDB(db)
	fmt.Println("Migration done!")
}

func withUsers(fn func(s *service.UserService) error) {
	_, db, err := openDB()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer database.CloseDB(db)
	if err := fn(service.NewUserService(db)); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func addUser(username, password, role string) {
	withUsers(func(s *service.UserService) error {
		user, err := s.AddUser(username, password, model.Role(role))
		if err != nil {
			return err
		}
		fmt.Printf("added %s user %s (id %d)\n", user.Role, user.Username, user.Id)
		return nil
	})
}

func setPassword(username, password string) {
	withUsers(func(s *service.UserService) error {
		if err := s.UpdatePassword(username, password); err != nil {
			return err
		}
		fmt.Println("password updated for", username)
		return nil
	})
}

func setRole(username, role string) {
	withUsers(func(s *service.UserService) error {
		if err := s.UpdateRole(username, model.Role(role)); err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", username, role)
		return nil
	})
}

func setTwoFactor(username string, enable bool) {
	withUsers(func(s *service.UserService) error {
		uri, err := s.SetTwoFactor(username, enable)
		if err != nil {
			return err
		}
		if !enable {
			fmt.Println("two-factor authentication disabled for", username)
			return nil
		}
		q, err := qrcode.New(uri, qrcode.Medium)
		if err != nil {
			return err
		}
		fmt.Println(q.ToSmallString(false))
		fmt.Println(uri)
		return nil
	})
}

func showSetting() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println(string(data))
	if path, _ := config.GetConfigFile(); fileExists(path) {
		fmt.Println("config file:", path)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func main() {
	var rootCmd = &cobra.Command{
		Use:     config.GetName(),
		Short:   "Self-hosted file manager",
		Version: config.GetVersion(),
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var userAddCmd = &cobra.Command{
		Use:   "add <username> <password>",
		Short: "Add a user",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			role, _ := cmd.Flags().GetString("role")
			addUser(args[0], args[1], role)
		},
	}
	userAddCmd.Flags().String("role", string(model.RoleUser), "role of the new user (user or admin)")

	var userPasswdCmd = &cobra.Command{
		Use:   "passwd <username> <password>",
		Short: "Set a user's password",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			setPassword(args[0], args[1])
		},
	}

	var userRoleCmd = &cobra.Command{
		Use:   "role <username> <user|admin>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			setRole(args[0], args[1])
		},
	}

	var user2faCmd = &cobra.Command{
		Use:   "2fa <username>",
		Short: "Enable or disable TOTP two-factor authentication",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			disable, _ := cmd.Flags().GetBool("disable")
			setTwoFactor(args[0], !disable)
		},
	}
	user2faCmd.Flags().Bool("disable", false, "disable two-factor authentication")

	userCmd.AddCommand(userAddCmd, userPasswdCmd, userRoleCmd, user2faCmd)

	var settingCmd = &cobra.Command{
		Use:   "setting",
		Short: "Inspect settings",
	}

	var showCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showSetting()
		},
	}
	settingCmd.AddCommand(showCmd)

	rootCmd.AddCommand(runCmd, migrateCmd, userCmd, settingCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
