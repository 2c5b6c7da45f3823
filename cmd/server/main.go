package main

import (
	"fmt"
	"html/template"
	"log"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/db"
	"inkwell/internal/handlers"
	"inkwell/internal/linkgate"
	"inkwell/internal/logging"
	"inkwell/internal/middleware"
	"inkwell/internal/router"
	"inkwell/internal/services"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := logging.InitLogger(&cfg.Logging); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logger := logging.GetLogger()
	defer logger.Sync()

	// Initialize Database
	db.Init(&cfg.Database)

	handlers.SetSiteURL(cfg.Server.SiteURL)

	// 变更通知（Redis 未配置时为 nil，功能自动降级）
	notifier, err := services.NewNotifier(&cfg.Redis)
	if err != nil {
		logger.Fatal("connect redis", zap.Error(err))
	}

	// 对象存储（未配置时为 nil，上传接口返回不可用）
	uploads, err := services.NewUploadService(&cfg.Storage)
	if err != nil {
		logger.Fatal("connect object storage", zap.Error(err))
	}

	mailer := services.NewMailer(&cfg.SMTP)

	// 跳转门注册表，闲置的门由后台协程回收
	gates := linkgate.NewRegistry()
	defer gates.Close()

	// 启动点击计数落库协程
	services.GetClickService()

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	r.Use(sessions.Sessions("inkwell_session", store))

	// Load Templates using Multitemplate to avoid collision and allow handler names
	r.HTMLRender = loadTemplates("./web/templates")

	// Static Assets
	r.Static("/static", "./web/static")

	// Middleware
	r.Use(middleware.VisitorID())
	r.Use(middleware.LoadUser())

	router.RegisterRoutes(r, router.Deps{
		Notifier: notifier,
		Mailer:   mailer,
		Uploads:  uploads,
		Gates:    gates,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Inkwell server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	includes, err := filepath.Glob(templatesDir + "/includes/*.html")
	if err != nil {
		panic(err)
	}

	components, err := filepath.Glob(templatesDir + "/components/*.html")
	if err != nil {
		panic(err)
	}

	// Helper to assemble files
	assemble := func(view string) []string {
		files := make([]string, 0)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, components...)
		files = append(files, view)
		return files
	}

	// FuncMap
	funcMap := template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": func(t interface{}) string {
			var timeVal time.Time
			switch v := t.(type) {
			case time.Time:
				timeVal = v
			default:
				return ""
			}

			duration := time.Since(timeVal)
			seconds := int(duration.Seconds())

			if seconds < 60 {
				return fmt.Sprintf("%d秒前", seconds)
			} else if seconds < 3600 {
				return fmt.Sprintf("%d分钟前", seconds/60)
			} else if seconds < 86400 {
				return fmt.Sprintf("%d小时前", seconds/3600)
			} else if seconds < 2592000 {
				return fmt.Sprintf("%d天前", seconds/86400)
			} else if seconds < 31536000 {
				return fmt.Sprintf("%d个月前", seconds/2592000)
			}
			return fmt.Sprintf("%d年前", seconds/31536000)
		},
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"stripHTML": func(s string) string {
			var result []rune
			inTag := false
			for _, r := range s {
				if r == '<' {
					inTag = true
				} else if r == '>' {
					inTag = false
				} else if !inTag {
					result = append(result, r)
				}
			}
			text := strings.TrimSpace(string(result))
			text = strings.ReplaceAll(text, "&nbsp;", " ")
			text = strings.ReplaceAll(text, "&amp;", "&")
			return text
		},
		"urlquery": func(s string) string {
			return url.QueryEscape(s)
		},
	}

	// Manual registration to ensure keys match handler expectation
	// Public
	r.AddFromFilesFuncs("post/list.html", funcMap, assemble(templatesDir+"/views/post/list.html")...)
	r.AddFromFilesFuncs("post/detail.html", funcMap, assemble(templatesDir+"/views/post/detail.html")...)
	// 评论树片段不套布局，直接由前端局部替换。片段文件必须排在组件前面。
	fragmentFiles := append([]string{templatesDir + "/views/post/_comments.html"}, components...)
	r.AddFromFilesFuncs("post/_comments.html", funcMap, fragmentFiles...)
	r.AddFromFilesFuncs("page.html", funcMap, assemble(templatesDir+"/views/page.html")...)
	r.AddFromFilesFuncs("search.html", funcMap, assemble(templatesDir+"/views/search.html")...)
	r.AddFromFilesFuncs("gate.html", funcMap, assemble(templatesDir+"/views/gate.html")...)

	// Admin
	r.AddFromFilesFuncs("admin/login.html", funcMap, assemble(templatesDir+"/views/admin/login.html")...)
	r.AddFromFilesFuncs("admin/dashboard.html", funcMap, assemble(templatesDir+"/views/admin/dashboard.html")...)
	r.AddFromFilesFuncs("admin/post_list.html", funcMap, assemble(templatesDir+"/views/admin/post_list.html")...)
	r.AddFromFilesFuncs("admin/post_form.html", funcMap, assemble(templatesDir+"/views/admin/post_form.html")...)
	r.AddFromFilesFuncs("admin/category_list.html", funcMap, assemble(templatesDir+"/views/admin/category_list.html")...)
	r.AddFromFilesFuncs("admin/comment_list.html", funcMap, assemble(templatesDir+"/views/admin/comment_list.html")...)
	r.AddFromFilesFuncs("admin/comment_tree.html", funcMap, assemble(templatesDir+"/views/admin/comment_tree.html")...)
	r.AddFromFilesFuncs("admin/link_list.html", funcMap, assemble(templatesDir+"/views/admin/link_list.html")...)
	r.AddFromFilesFuncs("admin/settings.html", funcMap, assemble(templatesDir+"/views/admin/settings.html")...)
	r.AddFromFilesFuncs("admin/credentials.html", funcMap, assemble(templatesDir+"/views/admin/credentials.html")...)

	// Error
	r.AddFromFilesFuncs("error.html", funcMap, assemble(templatesDir+"/views/error.html")...)

	return r
}
