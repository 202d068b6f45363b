package kafka

import "github.com/IBM/sarama"

const clientID = "stayhub"

// baseConfig fills the settings every stayhub client shares on top of cfg,
// or on top of sarama's defaults when cfg is nil.
func baseConfig(cfg *sarama.Config) *sarama.Config {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.ClientID = clientID
	cfg.Version = sarama.V2_5_0_0
	return cfg
}

func producerConfig(cfg *sarama.Config) *sarama.Config {
	cfg = baseConfig(cfg)
	// idempotent delivery needs acks from all replicas and one request in flight
	cfg.Producer.Idempotent = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Return.Successes = true
	return cfg
}

func consumerConfig(cfg *sarama.Config) *sarama.Config {
	cfg = baseConfig(cfg)
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true
	return cfg
}
