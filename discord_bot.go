package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// archiveBot announces freshly archived families to Discord and answers
// simple lookup commands against the local archive. A nil bot is valid
// and turns every method into a no-op so the crawler never has to care
// whether Discord is configured.
type archiveBot struct {
	session    *discordgo.Session
	channelIDs map[string]struct{}
	store      FamilyStore
}

func startArchiveBot(store FamilyStore) *archiveBot {
	botToken := os.Getenv("DISCORD_BOT_TOKEN")
	channelIDsStr := os.Getenv("DISCORD_CHANNEL_IDS")

	if botToken == "" {
		log.Println("⚠️ [Discord Bot] DISCORD_BOT_TOKEN not set. Bot will not start.")
		return nil
	}
	if channelIDsStr == "" {
		log.Println("⚠️ [Discord Bot] DISCORD_CHANNEL_IDS not set. Bot will not start.")
		return nil
	}

	channelIDs := make(map[string]struct{})
	for _, id := range strings.Split(channelIDsStr, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			channelIDs[trimmed] = struct{}{}
		}
	}
	if len(channelIDs) == 0 {
		log.Println("⚠️ [Discord Bot] No valid channel IDs found in DISCORD_CHANNEL_IDS. Bot will not start.")
		return nil
	}

	dg, err := discordgo.New("Bot " + botToken)
	if err != nil {
		log.Printf("❌ [Discord Bot] Error creating Discord session: %v", err)
		return nil
	}

	bot := &archiveBot{session: dg, channelIDs: channelIDs, store: store}
	dg.AddHandler(bot.ready)
	dg.AddHandler(bot.messageCreate)
	dg.Identify.Intents = discordgo.IntentsGuildMessages

	if err := dg.Open(); err != nil {
		log.Printf("❌ [Discord Bot] Error opening connection: %v", err)
		return nil
	}
	log.Println("🤖 [Discord Bot] Bot is running.")
	return bot
}

func (b *archiveBot) Close() {
	if b == nil || b.session == nil {
		return
	}
	log.Println("🔌 [Discord Bot] Closing Discord connection...")
	b.session.Close()
}

func (b *archiveBot) ready(s *discordgo.Session, event *discordgo.Ready) {
	log.Println("✅ [Discord Bot] Bot is connected and ready!")
	log.Printf("   -> Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)

	var listeningIDs []string
	for id := range b.channelIDs {
		listeningIDs = append(listeningIDs, id)
	}
	log.Printf("   -> Listening on %d Channel(s): %s", len(b.channelIDs), strings.Join(listeningIDs, ", "))
}

// AnnounceFamily posts a short summary of a newly saved family to every
// configured channel.
func (b *archiveBot) AnnounceFamily(doc *FamilyDocument) {
	if b == nil || b.session == nil || doc == nil {
		return
	}
	msg := fmt.Sprintf("📦 Archived **%s** [%s/%s] - %d variant(s)\n<%s>",
		doc.DisplayName, doc.Rarity, doc.Type, len(doc.Variants), doc.SourceBaseURL)
	for channelID := range b.channelIDs {
		if _, err := b.session.ChannelMessageSend(channelID, msg); err != nil {
			log.Printf("❌ [Discord Bot] Failed to announce in channel %s: %v", channelID, err)
		}
	}
}

func (b *archiveBot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}
	if _, ok := b.channelIDs[m.ChannelID]; !ok {
		return
	}
	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, "!card ") {
		return
	}
	unitID := strings.TrimSpace(strings.TrimPrefix(content, "!card "))
	if unitID == "" {
		return
	}

	doc, err := b.store.Load(unitID)
	if err != nil || doc == nil {
		s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("🔍 No archived card found for id `%s`.", unitID))
		return
	}

	var keys []string
	for _, rec := range doc.Variants {
		keys = append(keys, rec.Key)
	}
	reply := fmt.Sprintf("**%s** [%s/%s]\nVariants: %s\n<%s>",
		doc.DisplayName, doc.Rarity, doc.Type, strings.Join(keys, ", "), doc.SourceBaseURL)
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		log.Printf("❌ [Discord Bot] Failed to reply in channel %s: %v", m.ChannelID, err)
	}
}
