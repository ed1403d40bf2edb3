// Package store 持久化用户与生成图像记录。
// 所有对 GeneratedImage 的读写都以 owner 为强制过滤条件，
// 所有权检查在查询层完成，不依赖调用方自觉。
package store
