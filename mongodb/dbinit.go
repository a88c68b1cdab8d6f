package mongodb

import (
	"fmt"
	"time"

	"gopkg.in/mgo.v2"

	"github.com/Jayke770/stablebot-worker/log"
)

var (
	database *mgo.Database
	session  *mgo.Session

	dialInfo *mgo.DialInfo
)

// HasSession reports whether a mongodb session is connected.
func HasSession() bool {
	return session != nil
}

// MongoServerInit dials the database, blocking until it succeeds, then
// keeps watching the session in the background. The worker is useless
// without its store, so there is no give-up path here.
func MongoServerInit(addrs []string, dbname, user, pass string) {
	dialInfo = &mgo.DialInfo{
		Addrs:    addrs,
		Database: dbname,
		Username: user,
		Password: pass,
	}
	mongoConnect()
	go watchMongoSession()
}

func mongoConnect() {
	if session != nil { // reconnect drops the old session first
		session.Close()
	}
	log.Info("[mongodb] connecting", "addrs", dialInfo.Addrs, "dbName", dialInfo.Database)
	var err error
	for {
		session, err = mgo.DialWithInfo(dialInfo)
		if err == nil {
			break
		}
		log.Warn("[mongodb] dial error", "err", err)
		time.Sleep(1 * time.Second)
	}
	session.SetMode(mgo.Monotonic, true)
	session.SetSafe(&mgo.Safe{FSync: true})
	database = session.DB(dialInfo.Database)
	deinitCollections()
	log.Info("[mongodb] connected", "dbName", dialInfo.Database)
}

// idle sessions get their tcp connection dropped by some hosts, ping
// periodically and redial when the session is gone for good
func watchMongoSession() {
	for {
		time.Sleep(60 * time.Second)
		if err := ensureMongoConnected(); err != nil {
			log.Info("[mongodb] session lost, reconnecting", "dbName", dialInfo.Database, "err", err)
			mongoConnect()
		}
	}
}

func sessionPing() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recover from error %v", r)
		}
	}()
	for i := 0; i < 6; i++ {
		err = session.Ping()
		if err == nil {
			break
		}
		time.Sleep(10 * time.Second)
	}
	return err
}

func ensureMongoConnected() (err error) {
	err = sessionPing()
	if err != nil {
		log.Error("[mongodb] session ping error", "err", err)
		log.Info("[mongodb] refresh session", "dbName", dialInfo.Database)
		session.Refresh()
		database = session.DB(dialInfo.Database)
		deinitCollections()
		err = sessionPing()
	}
	return err
}
