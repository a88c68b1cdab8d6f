package worker

import (
	"os"
	"time"

	"github.com/Jayke770/stablebot-worker/dex"
	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/mongodb"
	"github.com/Jayke770/stablebot-worker/notify"
	"github.com/Jayke770/stablebot-worker/params"
	"github.com/Jayke770/stablebot-worker/queue"
	"github.com/Jayke770/stablebot-worker/tokens/bridge"
	"github.com/Jayke770/stablebot-worker/tools"
)

// task names on the main queue
const (
	TaskSettleBridge      = "settleBridge"
	TaskScanPending       = "scanPendingBridges"
	TaskUpdateBalance     = "updateBalance"
	TaskUpdatePoolBalance = "updatePoolBalances"
	TaskSendMessage       = "sendMessage"
)

const mainQueueName = "main"

// MessagePayload payload of a sendMessage job
type MessagePayload struct {
	ChatID int64  `json:"chatId"`
	Text   string `json:"message"`
}

// BalancePayload payload of an updateBalance job
type BalancePayload struct {
	UserID int64 `json:"userId"`
}

// StartWork wire up storage, queue and chain access and run the worker
// pool until stop is closed.
func StartWork(stop <-chan struct{}) {
	logWorker("worker", "start settlement worker", "identifier", params.GetIdentifier())

	config := params.GetConfig()

	passphrase := os.Getenv(config.Worker.PassphraseEnv)
	if passphrase == "" {
		log.Fatal("mnemonic cipher passphrase env is empty", "env", config.Worker.PassphraseEnv)
	}
	tools.SetCipherKey(passphrase)

	mongodb.MongoServerInit([]string{config.MongoDB.DBURL},
		config.MongoDB.DBName, config.MongoDB.UserName, config.MongoDB.Password)
	if err := mongodb.InitBridgeConfig(params.GetConfigID()); err != nil {
		log.Fatal("init bridge config failed", "configID", params.GetConfigID(), "err", err)
	}

	queue.Init(config.Redis.Address, config.Redis.Password, config.Redis.DBIndex)

	if config.Email != nil {
		tools.InitEmailConfig(config.Email.Server, config.Email.Port,
			config.Email.From, config.Email.FromName, config.Email.Password)
	}
	telegram := notify.NewTelegram(config.Telegram)
	var messenger Messenger
	if telegram != nil {
		messenger = telegram
	}

	router := bridge.NewRouter(config.Chains)
	price := dex.NewClient(config.Dex)
	settler := NewSettler(Store{}, router, price, messenger, notify.NewNotifier(telegram), params.GetConfigID())

	mainQueue := queue.New(mainQueueName)
	mainQueue.StartWorkers(params.GetConcurrency(), dispatch(settler, mainQueue, telegram), stop)

	go scheduleScans(mainQueue, stop)
}

// dispatch routes a dequeued job to its task.
func dispatch(settler *Settler, mainQueue *queue.Queue, telegram *notify.Telegram) queue.Handler {
	return func(job *queue.Job) error {
		switch job.Task {
		case TaskSettleBridge:
			var payload SettlePayload
			if err := job.Bind(&payload); err != nil {
				return err
			}
			return settler.Settle(payload.BridgeID)
		case TaskScanPending:
			return settler.ScanPendingBridges(mainQueue)
		case TaskUpdateBalance:
			var payload BalancePayload
			if err := job.Bind(&payload); err != nil {
				return err
			}
			return settler.UpdateUserBalances(payload.UserID)
		case TaskUpdatePoolBalance:
			return settler.UpdatePoolBalances()
		case TaskSendMessage:
			if telegram == nil {
				return nil
			}
			var payload MessagePayload
			if err := job.Bind(&payload); err != nil {
				return err
			}
			_, err := telegram.SendMessage(payload.ChatID, payload.Text)
			return err
		default:
			logWorkerWarn("worker", "unknown task, drop", "task", job.Task)
			return nil
		}
	}
}

// interval of the pool wallet balance check
const poolBalanceInterval = 10 * time.Minute

// scheduleScans enqueues the periodic pending bridge scan and the pool
// balance check. Both tasks carry their own name as dedupe key so slow
// runs never pile up.
func scheduleScans(mainQueue *queue.Queue, stop <-chan struct{}) {
	scanTicker := time.NewTicker(time.Duration(params.GetScanSeconds()) * time.Second)
	defer scanTicker.Stop()
	poolTicker := time.NewTicker(poolBalanceInterval)
	defer poolTicker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-scanTicker.C:
			if _, err := mainQueue.Enqueue(TaskScanPending, TaskScanPending, nil); err != nil {
				logWorkerError("worker", "enqueue pending scan failed", err)
			}
		case <-poolTicker.C:
			if _, err := mainQueue.Enqueue(TaskUpdatePoolBalance, TaskUpdatePoolBalance, nil); err != nil {
				logWorkerError("worker", "enqueue pool balance check failed", err)
			}
		}
	}
}
