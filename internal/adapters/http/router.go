package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Chat/internal/adapters/signal"
	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/config"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientTokenKey = "ct"

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware gives every browser a stable token kept in the cookie
// session. It only correlates connections in logs.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(clientTokenKey).(string)
		if token == "" {
			token = genClientToken()
			session.Set(clientTokenKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save client token")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// CORSMiddleware mirrors allowed origins back on responses and answers
// preflight requests.
func CORSMiddleware(origins *signal.OriginPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && origins.Allowed(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	origins := signal.NewOriginPolicy(cfg.AllowedOrigins)
	limiter := signal.NewSessionRateLimiter(cfg.RateLimit, cfg.RateInterval)
	ctrl := signal.NewSignalWSController(o, limiter, origins, signal.OptionsFromConfig(cfg))
	q := app.Query{Rooms: o.Rooms}
	defaultRoom := o.DefaultRoom
	if defaultRoom == "" {
		defaultRoom = domain.DefaultRoom
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware(origins))

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ChatSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Chat server is running")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	ws := func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client_token", c.GetString("client_token")).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	}
	r.GET("/ws", ws)

	registerReadAPI(r, q, defaultRoom)

	api := r.Group("/api")
	api.GET("/ws", ws)
	registerReadAPI(api, q, defaultRoom)

	// Older clients address rooms through these paths; the room is optional.
	messages := func(c *gin.Context) {
		c.JSON(http.StatusOK, q.ListMessages(roomParam(c, "room", defaultRoom)))
	}
	users := func(c *gin.Context) {
		c.JSON(http.StatusOK, q.ListUsers(roomParam(c, "room", defaultRoom)))
	}
	api.GET("/messages", messages)
	api.GET("/messages/:room", messages)
	api.GET("/users", users)
	api.GET("/users/:room", users)

	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"rooms":       q.RoomInfo(),
			"connections": o.Registry.Count(),
		})
	})

	return r
}

// registerReadAPI mounts the read-only room queries. Unknown rooms answer
// with empty lists.
func registerReadAPI(g gin.IRoutes, q app.Query, defaultRoom domain.RoomName) {
	g.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, q.ListRooms())
	})
	g.GET("/rooms/:name/messages", func(c *gin.Context) {
		c.JSON(http.StatusOK, q.ListMessages(roomParam(c, "name", defaultRoom)))
	})
	g.GET("/rooms/:name/users", func(c *gin.Context) {
		c.JSON(http.StatusOK, q.ListUsers(roomParam(c, "name", defaultRoom)))
	})
}

func roomParam(c *gin.Context, key string, def domain.RoomName) domain.RoomName {
	return domain.ParseRoomName(c.Param(key), def)
}
