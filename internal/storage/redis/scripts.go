package redis

import "github.com/redis/go-redis/v9"

// Script results shared by the versioned write scripts
const (
	casOK       = 1
	casConflict = 0
	casMissing  = -1
)

// casScript writes a versioned document stored as a HASH {v, data}.
// KEYS[1] document key
// ARGV[1] expected version, "0" to create
// ARGV[2] new version
// ARGV[3] JSON body
// ARGV[4] ttl in milliseconds, "0" for none
var casScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'v')
if not current then
  if ARGV[1] ~= '0' then
    return -1
  end
elseif current ~= ARGV[1] then
  return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[2], 'data', ARGV[3])
local ttl = tonumber(ARGV[4])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// enqueueScript adds a candidate unless the player is already queued.
// KEYS[1] queue ZSET, KEYS[2] entries HASH
// ARGV[1] player id, ARGV[2] rating, ARGV[3] candidate JSON
var enqueueScript = redis.NewScript(`
if redis.call('ZSCORE', KEYS[1], ARGV[1]) then
  return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])
return 1
`)

// dequeueScript removes a candidate, returning 0 when absent.
// KEYS[1] queue ZSET, KEYS[2] entries HASH
// ARGV[1] player id
var dequeueScript = redis.NewScript(`
local removed = redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('HDEL', KEYS[2], ARGV[1])
return removed
`)
